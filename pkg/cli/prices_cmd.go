package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newPricesCmd(client *Client, s *settings) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Show daily average price and total volume",
		Long: "Fetch the daily price series for the last 7, 30 or 90 days. " +
			"Other values are accepted by the server and fall back to 90.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("days") {
				days = s.days
			}
			rows, err := client.Prices(cmd.Context(), days)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]any{"data": rows})
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{
					r.Date,
					strconv.FormatFloat(r.PriceUSD, 'f', 2, 64),
					strconv.FormatFloat(r.VolumeUSD, 'f', 2, 64),
				})
			}
			PrintTable(os.Stdout, []string{"date", "price_usd", "volume_usd"}, table)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days (7, 30 or 90)")

	return cmd
}

func newHealthCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, h)
			}
			PrintTable(os.Stdout, []string{"status", "engine"}, [][]string{{h.Status, h.Engine}})
			return nil
		},
	}
}
