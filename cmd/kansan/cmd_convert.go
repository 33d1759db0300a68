package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spboyer/kansan/internal/converter"
	"github.com/spboyer/kansan/internal/form"
	"github.com/spboyer/kansan/internal/render"
	"github.com/spboyer/kansan/internal/scheme"
	"github.com/spboyer/kansan/internal/spinner"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	schemeKey  string
	scores     []string
	bases      []string
	jsonOutput bool
}

func newConvertCommand(opts *globalOptions) *cobra.Command {
	co := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert raw subject scores with a grading scheme",
		Long: `Convert raw subject scores with a grading scheme.

Without --score flags an interactive form asks for the scheme and for
each subject's raw score and maximum score.

With --score flags the conversion runs non-interactively. Subjects that
are not given a score count as 0. Scores that are empty or not numbers
also count as 0. A --base equal to the scheme's default maximum is not
sent to the service.

Examples:
  kansan convert --scheme A --score Math=80 --score English=120 --base English=200
  kansan convert --scheme 理系 --score 数学=150 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, co)
		},
	}

	cmd.Flags().StringVarP(&co.schemeKey, "scheme", "s", "", "Scheme key (prompted for when omitted)")
	cmd.Flags().StringArrayVar(&co.scores, "score", nil, "Raw score as SUBJECT=SCORE (repeatable)")
	cmd.Flags().StringArrayVar(&co.bases, "base", nil, "Maximum raw score as SUBJECT=BASE when it differs from the scheme default (repeatable)")
	cmd.Flags().BoolVar(&co.jsonOutput, "json", false, "Print the conversion result as JSON")
	return cmd
}

func runConvert(cmd *cobra.Command, opts *globalOptions, co *convertOptions) error {
	client, err := opts.newClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	showProgress := isTerminal(cmd.ErrOrStderr())
	interactive := len(co.scores) == 0 && len(co.bases) == 0

	var catalogs scheme.Holder
	if _, err := spinner.While(cmd.ErrOrStderr(), showProgress, "Loading schemes",
		func() (*scheme.Catalog, error) {
			return client.Reload(ctx, &catalogs)
		}); err != nil {
		return err
	}
	cat := catalogs.Load()

	f := form.New(cmd.InOrStdin(), cmd.ErrOrStderr())

	s, err := selectScheme(cat, co.schemeKey, interactive, f)
	if err != nil {
		return err
	}

	var inputs map[string]converter.RawInput
	if interactive {
		inputs, err = f.CollectInputs(s)
	} else {
		inputs, err = inputsFromFlags(s, co.scores, co.bases)
	}
	if err != nil {
		return err
	}

	conv := converter.New(client, slog.Default())
	res, err := spinner.While(cmd.ErrOrStderr(), showProgress, "Converting",
		func() (*scheme.ConversionResult, error) {
			return conv.Convert(ctx, s, inputs)
		})
	if err != nil {
		return err
	}

	if co.jsonOutput {
		return render.JSON(cmd.OutOrStdout(), res)
	}
	return render.Result(cmd.OutOrStdout(), res, s)
}

// selectScheme resolves the scheme to convert with: the --scheme flag, the
// only scheme in the catalog, or the form when running interactively.
func selectScheme(cat *scheme.Catalog, key string, interactive bool, f *form.Form) (*scheme.Scheme, error) {
	if key != "" {
		s, ok := cat.Get(key)
		if !ok {
			return nil, fmt.Errorf("unknown scheme %q (available: %s)", key, strings.Join(cat.Keys(), ", "))
		}
		return s, nil
	}
	if interactive || cat.Len() == 1 {
		return f.SelectScheme(cat, "")
	}
	return nil, fmt.Errorf("--scheme is required (available: %s)", strings.Join(cat.Keys(), ", "))
}

// inputsFromFlags turns SUBJECT=VALUE flags into raw inputs. Values are kept
// as typed; the converter decides how lenient to be with them. Subject names
// must belong to s so a typo is not silently scored as 0.
func inputsFromFlags(s *scheme.Scheme, scores, bases []string) (map[string]converter.RawInput, error) {
	inputs := make(map[string]converter.RawInput)

	for _, kv := range scores {
		name, value, err := splitSubjectValue(s, "score", kv)
		if err != nil {
			return nil, err
		}
		in := inputs[name]
		in.Score = value
		inputs[name] = in
	}
	for _, kv := range bases {
		name, value, err := splitSubjectValue(s, "base", kv)
		if err != nil {
			return nil, err
		}
		in := inputs[name]
		in.Base = value
		inputs[name] = in
	}
	return inputs, nil
}

func splitSubjectValue(s *scheme.Scheme, flag, kv string) (string, string, error) {
	name, value, ok := strings.Cut(kv, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("--%s %q: expected SUBJECT=VALUE", flag, kv)
	}
	if !s.Has(name) {
		names := make([]string, 0)
		for _, subj := range s.Subjects() {
			names = append(names, subj.Name)
		}
		return "", "", fmt.Errorf("--%s %q: scheme %s has no subject %q (subjects: %s)", flag, kv, s.Key, name, strings.Join(names, ", "))
	}
	return name, value, nil
}
