package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dcshock/formpipe/config"
	"github.com/dcshock/formpipe/form"
	"github.com/dcshock/formpipe/pipeline"
	"github.com/dcshock/formpipe/student"
	"github.com/dcshock/formpipe/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flags struct {
	file    string
	runners string
	runner  string
	envFile string
}

// newRootCmd creates the root command for formpipe.
func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "formpipe",
		Short: "Validate and register student submissions through staged form runners",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&f.file, "file", "f", "", "Path to the submissions file (.yaml)")
	cmd.PersistentFlags().StringVar(&f.runners, "runners", "", "Path to a runners file (.yaml); built-in definitions when empty")
	cmd.PersistentFlags().StringVar(&f.runner, "runner", "", "Runner or sequence to use from the runners file")
	cmd.PersistentFlags().StringVar(&f.envFile, "env", "", "Path to a .env file (default .env if present)")

	cmd.AddCommand(newValidateCmd(f), newSubmitCmd(f))
	return cmd
}

// execute runs the root command with provided args.
func execute(args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newValidateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check e-mail and phone number of every submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) (processFunc, error) {
				if f.runners == "" && f.runner == "" {
					return func(ctx context.Context, data *student.FormData, opts ...form.Option) *pipeline.Future {
						return student.NewFormValidator(data, a.deps.Validator, opts...).Validate(ctx)
					}, nil
				}
				return a.configured(f, student.FormValidatorName)
			})
		},
	}
}

func newSubmitCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Validate and register every submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, f, func(ctx context.Context, a *app) (processFunc, error) {
				if f.runners == "" && f.runner == "" {
					return func(ctx context.Context, data *student.FormData, opts ...form.Option) *pipeline.Future {
						return student.NewForm(data, a.deps, opts...).Process(ctx)
					}, nil
				}
				return a.configured(f, student.FormName)
			})
		},
	}
}

// processFunc starts one submission through a runner.
type processFunc func(ctx context.Context, data *student.FormData, opts ...form.Option) *pipeline.Future

func withApp(cmd *cobra.Command, f *flags, build func(ctx context.Context, a *app) (processFunc, error)) error {
	if f.file == "" {
		return fmt.Errorf("missing required flag: --file")
	}
	var envFiles []string
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}
	settings, err := config.LoadSettings(envFiles...)
	if err != nil {
		return err
	}
	subs, err := loadSubmissions(f.file)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, settings)
	if err != nil {
		return err
	}
	defer a.close()

	process, err := build(ctx, a)
	if err != nil {
		return err
	}
	return a.run(ctx, cmd, subs, process)
}

// configured returns a processFunc running the named runner or sequence from
// the runners file. name falls back to def.
func (a *app) configured(f *flags, def string) (processFunc, error) {
	file, err := loadRunners(f.runners)
	if err != nil {
		return nil, err
	}
	reg := config.NewRegistry[*student.FormData]()
	// retries come from the runners file here
	reg.RegisterAll(student.Deps{Validator: a.deps.Validator, Store: a.deps.Store}.Steps())
	built, err := config.BuildAllPipelines(reg, file)
	if err != nil {
		return nil, err
	}
	sequences, err := config.BuildAllSequences(file, built)
	if err != nil {
		return nil, err
	}

	name := f.runner
	if name == "" {
		name = def
	}
	if p, ok := built[name]; ok {
		cfg := file.Runners[name]
		obs, err := config.BuildObserver(&cfg, &config.BuildOptions{ObserverRegistry: a.observers})
		if err != nil {
			return nil, fmt.Errorf("runner %q: %w", name, err)
		}
		if obs == nil {
			obs = a.defaultObserver()
		}
		return func(ctx context.Context, data *student.FormData, opts ...form.Option) *pipeline.Future {
			opts = append(opts, form.WithObserver(obs))
			return form.New(p.Name, data, p.Steps, opts...).Run(ctx)
		}, nil
	}
	if seq, ok := sequences[name]; ok {
		return func(ctx context.Context, data *student.FormData, opts ...form.Option) *pipeline.Future {
			return form.NewSequence(seq, data, opts...).Run(ctx)
		}, nil
	}
	return nil, fmt.Errorf("runner %q not defined", name)
}

// run processes subs one after the other and prints one line per submission.
func (a *app) run(ctx context.Context, cmd *cobra.Command, subs []student.FormData, process processFunc) error {
	out := cmd.OutOrStdout()
	failed := 0
	for i := range subs {
		data := &subs[i]
		var feedback string
		fut := process(ctx, data,
			form.WithLogger(a.logger),
			form.WithObserver(a.defaultObserver()),
			form.WithFeedback(func(_ context.Context, err error) { feedback = describe(err) }),
		)
		if err := fut.Wait(ctx); err != nil {
			failed++
			if feedback == "" {
				feedback = describe(err)
			}
			fmt.Fprintf(out, "fail\t%s\t%s\n", data.Email, feedback)
			continue
		}
		if data.StudentID != "" {
			fmt.Fprintf(out, "ok\t%s\t%s\n", data.Email, data.StudentID)
		} else {
			fmt.Fprintf(out, "ok\t%s\n", data.Email)
		}
	}
	a.logger.Info("Submissions processed", zap.Int("total", len(subs)), zap.Int("failed", failed), zap.Int("stored", a.store.Len()))
	fmt.Fprintf(out, "%d/%d submissions accepted\n", len(subs)-failed, len(subs))
	if failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", failed, len(subs))
	}
	return nil
}

// describe renders a run failure as a single feedback line.
func describe(err error) string {
	if errs, ok := validation.AsErrors(err); ok {
		msgs := make([]string, 0, len(errs))
		for _, fe := range errs {
			msgs = append(msgs, fe.String())
		}
		return strings.Join(msgs, "; ")
	}
	if errors.Is(err, student.ErrDuplicateEmail) {
		return "email already registered"
	}
	return err.Error()
}
