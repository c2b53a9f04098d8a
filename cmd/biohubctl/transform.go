package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/biohubbc/biohub/internal/core/transform"
	"github.com/biohubbc/biohub/internal/pkg/config"
)

type securityFlags struct {
	rules           string
	restrictUnknown bool
}

func (f *securityFlags) classifier() (*transform.Classifier, error) {
	codes, restrict, err := config.SecurityConfig{RulesFile: f.rules, RestrictUnknownTaxa: f.restrictUnknown}.Denylist()
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = transform.DefaultDenylist
	}
	return transform.NewClassifier(codes, transform.WithRestrictUnknownTaxa(restrict)), nil
}

func newTransformCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Run a single transform over local JSON files and print the result",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "metadata <eml.json>",
			Short: "Extract dataset metadata from an EML document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				doc, err := readDoc(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), transform.ExtractMetadata(doc))
			},
		},
		&cobra.Command{
			Use:   "boundary <eml.json>",
			Short: "Extract study area boundaries as a GeoJSON FeatureCollection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				doc, err := readDoc(args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, transform.ExtractBoundary(doc))
			},
		},
		&cobra.Command{
			Use:   "centroid <eml.json>",
			Short: "Compute the centroid of the study area boundaries",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				doc, err := readDoc(args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, transform.ExtractCentroid(doc))
			},
		},
		&cobra.Command{
			Use:   "occurrences <dwc.json>",
			Short: "Convert Darwin Core occurrences to GeoJSON points, unsecured",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				doc, err := readDoc(args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, transform.ExtractOccurrences(doc))
			},
		},
		newSecureCmd(),
		newClassifyCmd(),
	)
	return cmd
}

// securedFeature is one line of `transform secure` output.
type securedFeature struct {
	ID         any             `json:"id,omitempty"`
	TaxonID    any             `json:"taxonID,omitempty"`
	Restricted bool            `json:"restricted"`
	Secured    json.RawMessage `json:"secured"`
}

func newSecureCmd() *cobra.Command {
	var flags securityFlags
	cmd := &cobra.Command{
		Use:   "secure <dwc.json>",
		Short: "Convert occurrences and mask those on the security denylist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := flags.classifier()
			if err != nil {
				return err
			}
			doc, err := readDoc(args[0])
			if err != nil {
				return err
			}

			res := transform.ExtractOccurrences(doc)
			out := make([]securedFeature, 0, len(res.Collection.Features))
			for _, f := range res.Collection.Features {
				outcome := classifier.Secure(f)
				secured := json.RawMessage(`{}`)
				if !outcome.IsRestricted() {
					if secured, err = json.Marshal(f); err != nil {
						return err
					}
				}
				out = append(out, securedFeature{
					ID:         f.ID,
					TaxonID:    f.Properties["taxonID"],
					Restricted: outcome.IsRestricted(),
					Secured:    secured,
				})
			}
			reportIssues(cmd, res)
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&flags.rules, "rules", "", "security rules YAML file (default: built-in denylist)")
	cmd.Flags().BoolVar(&flags.restrictUnknown, "restrict-unknown", false, "mask occurrences without a taxonID")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var flags securityFlags
	cmd := &cobra.Command{
		Use:   "classify <taxon-code>...",
		Short: "Report whether taxon codes are restricted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, err := flags.classifier()
			if err != nil {
				return err
			}
			out := make(map[string]bool, len(args))
			for _, code := range args {
				out[code] = classifier.Sensitive(code)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&flags.rules, "rules", "", "security rules YAML file (default: built-in denylist)")
	cmd.Flags().BoolVar(&flags.restrictUnknown, "restrict-unknown", false, "treat empty codes as restricted")
	return cmd
}

func readDoc(path string) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := transform.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func printResult(cmd *cobra.Command, res transform.Result) error {
	reportIssues(cmd, res)
	return printJSON(cmd.OutOrStdout(), res.Collection)
}

func reportIssues(cmd *cobra.Command, res transform.Result) {
	for _, issue := range res.Issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s %s: %s\n", issue.Transform, issue.Feature, issue.Reason)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
