package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/geocoder89/clubhub/internal/regform"
	"github.com/spf13/cobra"
)

var errRejected = errors.New("registration rejected")

type options struct {
	apiURL  string
	timeout time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "clubctl",
		Short:        "Work with clubhub registration forms",
		SilenceUsage: true,
	}
	root.SetOut(out)

	defaultURL := os.Getenv("CLUBHUB_API")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", defaultURL, "clubhub API base URL (env CLUBHUB_API)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", regform.DefaultTimeout, "submission timeout")

	root.AddCommand(newFormsCmd(opts), newRegisterCmd(opts))
	return root
}

func (o *options) client() *regform.Client {
	return regform.NewClient(o.apiURL, &http.Client{Timeout: o.timeout + 5*time.Second})
}

func newFormsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List registration forms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs, err := opts.client().Forms(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tOPEN\tTITLE")
			for _, d := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", d.ID, d.Kind, d.Open, d.Title)
			}
			return tw.Flush()
		},
	}
}

func newRegisterCmd(opts *options) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "register <formID>",
		Short: "Fill in a form and submit it",
		Example: `  clubctl register vlogit \
    --field name="Asha Rao" --field registrationNumber=RA2111003010123 \
    --field srmMailId=asha@srmist.edu.in --field phoneNumber=9876543210

  clubctl register hangman --field teamName="Byte Busters" \
    --field teamMembers.0.name="Asha Rao" ...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return register(cmd.Context(), cmd.OutOrStdout(), opts, args[0], fields)
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "field value as path=value (repeatable)")
	return cmd
}

func register(ctx context.Context, out io.Writer, opts *options, formID string, fields []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := opts.client()

	def, err := client.Form(ctx, formID)
	if err != nil {
		return fmt.Errorf("load form %q: %w", formID, err)
	}

	c := regform.New(def, client,
		regform.WithTimeout(opts.timeout),
		regform.WithPresenter(regform.PresenterFunc(func(fb regform.Feedback) {
			mark := "ok"
			if fb.Tone == regform.Negative {
				mark = "error"
			}
			fmt.Fprintf(out, "%s: %s\n", mark, fb.Message)
		})),
	)
	c.Mount()

	for _, kv := range fields {
		path, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--field %q: want path=value", kv)
		}
		if err := c.UpdateField(strings.TrimSpace(path), value); err != nil {
			return err
		}
	}

	fb, err := c.Submit(ctx)
	if err != nil {
		return err
	}

	errs := c.Errors()
	paths := make([]string, 0, len(errs))
	for p := range errs {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		fmt.Fprintf(out, "  %s: %s\n", p, errs[p])
	}

	if fb.Tone != regform.Positive {
		return errRejected
	}
	return nil
}
