package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parkscan",
	Short: "Parking capacity and occupancy estimation from aerial imagery",
	Long: `parkscan geocodes a place, finds nearby parking areas on OpenStreetMap,
fetches aerial imagery for the largest lots, runs tiled vehicle detection
and blends the car count with an area-based estimate into a capacity and
occupancy figure per lot.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
