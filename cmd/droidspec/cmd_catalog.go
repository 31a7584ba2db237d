package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/HerbHall/droidspec/internal/catalog"
	"github.com/HerbHall/droidspec/internal/export"
	"github.com/HerbHall/droidspec/internal/filter"
	"github.com/HerbHall/droidspec/internal/schema"
	"github.com/HerbHall/droidspec/internal/stats"
	"github.com/HerbHall/droidspec/pkg/models"
)

// errInvalidCatalog signals a validation failure whose details were
// already printed.
var errInvalidCatalog = errors.New("catalog is invalid")

func newValidateCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a JSON or YAML catalog file against the device schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var res schema.Result
			if catalog.EncodingForPath(args[0]) == catalog.EncodingYAML {
				res = schema.ValidateYAML(data)
			} else {
				res = schema.Validate(data)
			}

			out := cmd.OutOrStdout()
			if res.Valid() {
				fmt.Fprintf(out, "%s: ok (%d devices)\n", args[0], len(res.Devices))
				return nil
			}
			fmt.Fprintf(out, "%s: %d errors\n", args[0], len(res.Errors))
			for _, e := range schema.Truncate(res.Errors, limit) {
				fmt.Fprintf(out, "  %s\n", e)
			}
			return errInvalidCatalog
		},
	}
	cmd.Flags().IntVar(&limit, "max-errors", schema.MaxReportedErrors, "maximum number of errors to print")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var (
		asJSON bool
		top    int
	)
	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Summarize a catalog file (the bundled sample when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := readCatalog(args)
			if err != nil {
				return err
			}
			s := stats.Calculate(devices)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			printStats(cmd.OutOrStdout(), s, top)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full statistics as JSON")
	cmd.Flags().IntVar(&top, "top", 5, "number of entries per ranked breakdown")
	return cmd
}

func printStats(w io.Writer, s stats.DeviceStats, top int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Devices\t%s\n", humanize.Comma(int64(s.TotalDevices)))
	fmt.Fprintf(tw, "Average RAM\t%s\n", humanize.IBytes(uint64(s.AverageRAMMB)*humanize.MiByte))
	fmt.Fprintf(tw, "64-bit ARM\t%s\n", percent(s.ARM64Support, s.TotalDevices))
	fmt.Fprintf(tw, "Multi-ABI\t%s\n", percent(s.MultiABI, s.TotalDevices))
	fmt.Fprintf(tw, "High resolution\t%s\n", percent(s.HighResolution, s.TotalDevices))
	fmt.Fprintf(tw, "OpenGL ES 3.2\t%s\n", percent(s.OpenGLES32Support, s.TotalDevices))

	section := func(title string, counts []stats.Count) {
		fmt.Fprintf(tw, "\n%s\t\n", title)
		for _, c := range counts {
			fmt.Fprintf(tw, "  %s\t%d\n", c.Key, c.Count)
		}
	}
	section("Manufacturers", stats.TopN(s.ByManufacturer, top))
	section("Form factors", stats.TopN(s.ByFormFactor, top))
	section("Processor vendors", stats.TopN(s.ByProcessorVendor, top))

	ram := make([]stats.Count, 0, len(stats.RAMBuckets()))
	for _, b := range stats.RAMBuckets() {
		ram = append(ram, stats.Count{Key: b, Count: s.ByRAMBucket[b]})
	}
	section("RAM", ram)
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%d (%.0f%%)", n, float64(n)*100/float64(total))
}

func newExportCmd() *cobra.Command {
	var (
		format  string
		outPath string
		pretty  bool
		sel     filter.State
		sortBy  string
		order   string
	)
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Convert a catalog file to JSON, CSV, XML or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			devices, err := readCatalog(args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("pretty") {
				pretty = loadViper().GetBool("export.pretty")
			}

			devices = filter.Sort(filter.Apply(devices, sel), sortBy, order)
			res, err := export.Export(devices, export.Options{Format: f, Pretty: pretty, Filename: outPath})
			if err != nil {
				return err
			}

			if outPath == "-" {
				_, err = cmd.OutOrStdout().Write(res.Data)
				return err
			}
			dest := res.Filename
			if outPath != "" {
				dest = filepath.Join(filepath.Dir(outPath), res.Filename)
			}
			if err := os.WriteFile(dest, res.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d devices to %s (%s)\n",
				len(devices), dest, humanize.Bytes(uint64(len(res.Data))))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&format, "format", "f", string(export.FormatJSON), "output format: json, csv, xml or yaml")
	fl.StringVarP(&outPath, "out", "o", "", "output file; '-' writes to stdout")
	fl.BoolVar(&pretty, "pretty", true, "indent JSON output")
	fl.StringVar(&sel.Search, "search", "", "free-text filter")
	fl.StringVar(&sel.FormFactor, "form-factor", filter.All, "form factor filter")
	fl.StringSliceVar(&sel.Manufacturers, "manufacturer", nil, "manufacturer filter (repeatable)")
	fl.StringVar(&sel.MinRAM, "min-ram", filter.All, "minimum RAM in MB")
	fl.StringVar(&sel.SDKVersion, "sdk", filter.All, "required API level")
	fl.StringVar(&sortBy, "sort", filter.SortByName, "sort key: name, manufacturer, ram or sdk")
	fl.StringVar(&order, "order", filter.OrderAsc, "sort order: asc or desc")
	return cmd
}

// readCatalog loads the catalog named by args[0], or the bundled sample.
func readCatalog(args []string) ([]models.AndroidDevice, error) {
	if len(args) == 0 {
		return catalog.Sample(), nil
	}
	load, err := catalog.Loader{Path: args[0]}.Load()
	if err != nil {
		var ve *catalog.ValidationError
		if errors.As(err, &ve) {
			return nil, fmt.Errorf("%s: %d validation errors (run 'droidspec validate %s')",
				args[0], len(ve.Errors), args[0])
		}
		return nil, err
	}
	return load.Devices, nil
}
