// Package main is a command line calculator over the parlay pricing engine.
//
// Negative American odds look like flags, so pass legs after "--":
//
//	parlay-calc price --stake 10 -- -110 +150
package main

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/parlay-slip/internal/models"
	"github.com/yourusername/parlay-slip/internal/odds"
	"github.com/yourusername/parlay-slip/internal/parlay"
)

var (
	stake       float64
	comboSize   int
	probability float64
	asDecimal   bool
)

func init() {
	priceCmd.Flags().Float64VarP(&stake, "stake", "s", 10, "Stake on the parlay")

	roundRobinCmd.Flags().Float64VarP(&stake, "stake", "s", 10, "Stake per combination")
	roundRobinCmd.Flags().IntVarP(&comboSize, "size", "k", 2, "Legs per combination")

	evCmd.Flags().Float64VarP(&probability, "probability", "p", 0, "Model win probability in (0,1)")
	_ = evCmd.MarkFlagRequired("probability")

	convertCmd.Flags().BoolVar(&asDecimal, "decimal", false, "Treat the input as decimal odds")

	rootCmd.AddCommand(convertCmd, priceCmd, roundRobinCmd, evCmd)
}

var rootCmd = &cobra.Command{
	Use:          "parlay-calc",
	Short:        "Price parlays and round robins",
	SilenceUsage: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert ODDS",
	Short: "Convert between American and decimal odds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.OutOrStdout(), args[0], asDecimal)
	},
}

var priceCmd = &cobra.Command{
	Use:   "price -- ODDS...",
	Short: "Price a parlay from American odds",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrice(cmd.OutOrStdout(), args, stake)
	},
}

var roundRobinCmd = &cobra.Command{
	Use:     "roundrobin -- ODDS...",
	Aliases: []string{"rr"},
	Short:   "List every size-k parlay of the given legs",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoundRobin(cmd.OutOrStdout(), args, comboSize, stake)
	},
}

var evCmd = &cobra.Command{
	Use:   "ev -- ODDS",
	Short: "Expected value per unit staked at a model probability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEV(cmd.OutOrStdout(), args[0], probability)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// parseLegs turns odds strings into legs on distinct events
func parseLegs(args []string) ([]models.Leg, error) {
	legs := make([]models.Leg, 0, len(args))
	for i, arg := range args {
		american, err := odds.ParseOdds(arg)
		if err != nil {
			return nil, err
		}
		id := fmt.Sprintf("leg%d", i+1)
		legs = append(legs, models.Leg{ID: id, EventID: id, MarketID: id, Odds: american})
	}
	return legs, nil
}

func runConvert(w io.Writer, input string, fromDecimal bool) error {
	var american int
	if fromDecimal {
		dec, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return fmt.Errorf("%w: cannot parse %q", models.ErrInvalidOdds, input)
		}
		american, err = odds.DecimalToAmerican(dec)
		if err != nil {
			return err
		}
	} else {
		var err error
		american, err = odds.ParseOdds(input)
		if err != nil {
			return err
		}
	}

	dec, err := odds.AmericanToDecimal(american)
	if err != nil {
		return err
	}
	implied, err := odds.ImpliedProbability(american)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "American: %s\n", odds.FormatOdds(american))
	fmt.Fprintf(w, "Decimal:  %.4f\n", dec)
	fmt.Fprintf(w, "Implied:  %.2f%%\n", implied*100)
	return nil
}

func runPrice(w io.Writer, args []string, stake float64) error {
	legs, err := parseLegs(args)
	if err != nil {
		return err
	}
	pricing, err := parlay.Price(legs, stake)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Legs:       %d\n", len(legs))
	fmt.Fprintf(w, "Odds:       %s (%.4f)\n", odds.FormatOdds(pricing.AmericanOdds), pricing.DecimalOdds)
	fmt.Fprintf(w, "Stake:      %s\n", odds.RoundCents(pricing.Stake).StringFixed(2))
	fmt.Fprintf(w, "Payout:     %s\n", odds.RoundCents(pricing.Payout).StringFixed(2))
	fmt.Fprintf(w, "Profit:     %s\n", odds.RoundCents(pricing.Profit).StringFixed(2))
	fmt.Fprintf(w, "Break-even: %.2f%%\n", pricing.ImpliedProbability*100)
	return nil
}

func runRoundRobin(w io.Writer, args []string, size int, stake float64) error {
	legs, err := parseLegs(args)
	if err != nil {
		return err
	}
	combos, err := parlay.RoundRobin(legs, size, stake)
	if err != nil {
		return err
	}
	summary := parlay.Summarize(combos)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLEGS\tODDS\tSTAKE\tPAYOUT")
	for i, c := range combos {
		ids := make([]string, len(c.Indices))
		for j, idx := range c.Indices {
			ids[j] = strconv.Itoa(idx + 1)
		}
		display := "-"
		if american, err := odds.DecimalToAmerican(c.CombinedOdds); err == nil {
			display = odds.FormatOdds(american)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, strings.Join(ids, "+"), display,
			odds.RoundCents(c.Stake).StringFixed(2), odds.RoundCents(c.Payout).StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nCombinations: %d\n", summary.Combinations)
	fmt.Fprintf(w, "Total stake:  %s\n", odds.RoundCents(summary.TotalStake).StringFixed(2))
	fmt.Fprintf(w, "Max return:   %s\n", odds.RoundCents(summary.MaxReturn).StringFixed(2))
	return nil
}

func runEV(w io.Writer, input string, probability float64) error {
	american, err := odds.ParseOdds(input)
	if err != nil {
		return err
	}
	ev, err := parlay.ExpectedValue(probability, american)
	if err != nil {
		return err
	}

	verdict := "negative"
	if ev > 0 {
		verdict = "positive"
	}
	fmt.Fprintf(w, "EV per unit: %+.4f (%s)\n", ev, verdict)
	return nil
}
