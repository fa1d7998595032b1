package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"

	"securechain-api/internal/domain"
	"securechain-api/pkg/formclient"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newController(cmd *cobra.Command, form formclient.Form) *formclient.Controller {
	client := &http.Client{Timeout: viper.GetDuration("timeout")}
	return formclient.NewController(form,
		formclient.NewHTTPSubmitter(viper.GetString("url"), client),
		formclient.WithNotifier(formclient.NewWriterNotifier(cmd.OutOrStdout())),
	)
}

// fieldsFromFlags reads the named string flags into a field map
func fieldsFromFlags(cmd *cobra.Command, flags map[string]string) domain.Fields {
	fields := make(domain.Fields, len(flags))
	for flag, field := range flags {
		if v, err := cmd.Flags().GetString(flag); err == nil && v != "" {
			fields[field] = v
		}
	}
	return fields
}

// run submits once and prints the outcome
func run(cmd *cobra.Command, c *formclient.Controller, fields domain.Fields) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := c.Submit(ctx, fields)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state: %s\n", c.State())
	if result.Success {
		fmt.Fprintf(out, "submission: %s\n", result.SubmissionID)
		return nil
	}

	printErrors(out, "errors", c.Errors())
	printErrors(out, "field errors", c.FieldErrors())
	return errSubmissionFailed
}

func printErrors(w io.Writer, title string, errs map[string]string) {
	if len(errs) == 0 {
		return
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-12s %s\n", k, errs[k])
	}
}
