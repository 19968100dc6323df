package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"Zephyr/internal/backtest"
	"Zephyr/internal/risk"
	"Zephyr/internal/strategy"
)

func main() {
	csvPath := flag.String("csv", "", "CSV file of resolved observations")
	bankroll := flag.Float64("bankroll", 10000, "starting bankroll in dollars")
	minEdge := flag.Float64("min-edge", strategy.DefaultMinEdge, "minimum |forecast - market| to trade")
	maxFraction := flag.Float64("max-fraction", 0.03, "bankroll fraction cap per contract")
	kellyScale := flag.Float64("kelly-scale", 0.25, "fraction of full Kelly to stake")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	rows, err := backtest.LoadCSV(*csvPath)
	if err != nil {
		log.Fatalf("load rows: %v", err)
	}

	cfg := risk.DefaultConfig()
	cfg.MaxFractionPerContract = *maxFraction
	cfg.KellyScale = *kellyScale

	res := backtest.Run(rows, *bankroll, *minEdge, cfg)

	fmt.Printf("rows:             %d\n", len(rows))
	fmt.Printf("trades:           %d (won %d, lost %d)\n", res.TotalTrades, res.WinningTrades, res.LosingTrades)
	fmt.Printf("win rate:         %.1f%%\n", res.WinRate*100)
	fmt.Printf("average edge:     %.3f\n", res.AverageEdge)
	fmt.Printf("starting bankroll: $%.2f\n", res.StartingBankroll)
	fmt.Printf("ending bankroll:   $%.2f\n", res.EndingBankroll)
	fmt.Printf("total pnl:         $%+.2f (%.2f%%)\n", res.TotalPnL, res.ReturnPct*100)
}
