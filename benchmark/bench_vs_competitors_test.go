package benchmark_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/urfave/cli/v2"

	"github.com/dzonerzy/go-cmdline/cmdline"
)

// must stops the benchmark when the grammar itself is invalid
func must(b *testing.B, err error) {
	b.Helper()
	if err != nil {
		b.Fatal(err)
	}
}

// Benchmark simple CLI with basic flags
// All three route to a command and read an int and a bool

func BenchmarkSimpleCLI_CmdLine(b *testing.B) {
	p := cmdline.New("benchmark app")
	run, err := p.Subcommand("run", "", "Run benchmark")
	must(b, err)
	must(b, run.Named("port", cmdline.Int, cmdline.WithDefault(8080), cmdline.WithHelp("Server port")))
	must(b, run.Flag("verbose", cmdline.Bool, cmdline.WithHelp("Verbose output")))

	args := []string{"run", "--port", "9000", "--verbose"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSimpleCLI_Cobra(b *testing.B) {
	args := []string{"run", "--port", "9000", "--verbose"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rootCmd := &cobra.Command{Use: "bench"}
		runCmd := &cobra.Command{
			Use: "run",
			Run: func(_ *cobra.Command, _ []string) {},
		}
		runCmd.Flags().IntP("port", "p", 8080, "Server port")
		runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
		rootCmd.AddCommand(runCmd)
		rootCmd.SetArgs(args)
		_ = rootCmd.Execute()
	}
}

func BenchmarkSimpleCLI_Urfave(b *testing.B) {
	args := []string{"bench", "run", "--port", "9000", "--verbose"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name: "bench",
			Commands: []*cli.Command{
				{
					Name: "run",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "port", Value: 8080, Usage: "Server port"},
						&cli.BoolFlag{Name: "verbose", Usage: "Verbose output"},
					},
					Action: func(_ *cli.Context) error { return nil },
				},
			},
		}
		_ = app.Run(args)
	}
}

// Benchmark with a global flag in front of a subcommand

func BenchmarkSubcommands_CmdLine(b *testing.B) {
	p := cmdline.New("benchmark app", cmdline.WithFinalizeOnCommand(true))
	must(b, p.Flag("global", cmdline.Bool, cmdline.WithHelp("Global flag")))
	serve, err := p.Subcommand("serve", "", "Start server")
	must(b, err)
	must(b, serve.Named("port", cmdline.Int, cmdline.WithDefault(8080)))
	must(b, serve.Named("host", cmdline.String, cmdline.WithDefault("localhost")))

	args := []string{"--global", "serve", "--port", "9000", "--host", "0.0.0.0"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSubcommands_Cobra(b *testing.B) {
	args := []string{"--global", "serve", "--port", "9000", "--host", "0.0.0.0"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rootCmd := &cobra.Command{Use: "bench"}
		rootCmd.PersistentFlags().Bool("global", false, "Global flag")

		serveCmd := &cobra.Command{
			Use: "serve",
			Run: func(_ *cobra.Command, _ []string) {},
		}
		serveCmd.Flags().IntP("port", "p", 8080, "Server port")
		serveCmd.Flags().String("host", "localhost", "Server host")
		rootCmd.AddCommand(serveCmd)

		rootCmd.SetArgs(args)
		_ = rootCmd.Execute()
	}
}

func BenchmarkSubcommands_Urfave(b *testing.B) {
	args := []string{"bench", "--global", "serve", "--port", "9000", "--host", "0.0.0.0"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name: "bench",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "global", Usage: "Global flag"},
			},
			Commands: []*cli.Command{
				{
					Name: "serve",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "port", Value: 8080, Usage: "Server port"},
						&cli.StringFlag{Name: "host", Value: "localhost", Usage: "Server host"},
					},
					Action: func(_ *cli.Context) error { return nil },
				},
			},
		}
		_ = app.Run(args)
	}
}

// Benchmark many flags, half of them left to their defaults

func BenchmarkManyFlags_CmdLine(b *testing.B) {
	p := cmdline.New("benchmark app")
	run, err := p.Subcommand("run", "", "Run benchmark")
	must(b, err)
	for i, def := range []string{"value1", "value2", "value3", "value4", "value5"} {
		must(b, run.Named("flag"+string(rune('1'+i)), cmdline.String, cmdline.WithDefault(def)))
	}
	must(b, run.Named("port", cmdline.Int, cmdline.WithDefault(8080)))
	for _, name := range []string{"verbose", "debug", "quiet", "force"} {
		must(b, run.Flag(name, cmdline.Bool))
	}

	args := []string{
		"run",
		"--flag1", "test1",
		"--flag2", "test2",
		"--flag3", "test3",
		"--port", "9000",
		"--verbose",
		"--debug",
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkManyFlags_Cobra(b *testing.B) {
	args := []string{
		"run",
		"--flag1", "test1",
		"--flag2", "test2",
		"--flag3", "test3",
		"--port", "9000",
		"--verbose",
		"--debug",
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rootCmd := &cobra.Command{Use: "bench"}
		runCmd := &cobra.Command{
			Use: "run",
			Run: func(_ *cobra.Command, _ []string) {},
		}
		runCmd.Flags().String("flag1", "value1", "Flag 1")
		runCmd.Flags().String("flag2", "value2", "Flag 2")
		runCmd.Flags().String("flag3", "value3", "Flag 3")
		runCmd.Flags().String("flag4", "value4", "Flag 4")
		runCmd.Flags().String("flag5", "value5", "Flag 5")
		runCmd.Flags().IntP("port", "p", 8080, "Port")
		runCmd.Flags().BoolP("verbose", "v", false, "Verbose")
		runCmd.Flags().Bool("debug", false, "Debug")
		runCmd.Flags().Bool("quiet", false, "Quiet")
		runCmd.Flags().Bool("force", false, "Force")
		rootCmd.AddCommand(runCmd)
		rootCmd.SetArgs(args)
		_ = rootCmd.Execute()
	}
}

func BenchmarkManyFlags_Urfave(b *testing.B) {
	args := []string{
		"bench", "run",
		"--flag1", "test1",
		"--flag2", "test2",
		"--flag3", "test3",
		"--port", "9000",
		"--verbose",
		"--debug",
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name: "bench",
			Commands: []*cli.Command{
				{
					Name: "run",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "flag1", Value: "value1", Usage: "Flag 1"},
						&cli.StringFlag{Name: "flag2", Value: "value2", Usage: "Flag 2"},
						&cli.StringFlag{Name: "flag3", Value: "value3", Usage: "Flag 3"},
						&cli.StringFlag{Name: "flag4", Value: "value4", Usage: "Flag 4"},
						&cli.StringFlag{Name: "flag5", Value: "value5", Usage: "Flag 5"},
						&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port"},
						&cli.BoolFlag{Name: "verbose", Usage: "Verbose"},
						&cli.BoolFlag{Name: "debug", Usage: "Debug"},
						&cli.BoolFlag{Name: "quiet", Usage: "Quiet"},
						&cli.BoolFlag{Name: "force", Usage: "Force"},
					},
					Action: func(_ *cli.Context) error { return nil },
				},
			},
		}
		_ = app.Run(args)
	}
}

// Benchmark nested subcommands

func BenchmarkNestedCommands_CmdLine(b *testing.B) {
	p := cmdline.New("benchmark app")
	server, err := p.Subcommand("server", "", "Server management")
	must(b, err)
	_, err = server.Subcommand("start", "", "Start server")
	must(b, err)

	args := []string{"server", "start"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNestedCommands_Cobra(b *testing.B) {
	args := []string{"server", "start"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rootCmd := &cobra.Command{Use: "bench"}
		serverCmd := &cobra.Command{Use: "server"}
		startCmd := &cobra.Command{
			Use: "start",
			Run: func(_ *cobra.Command, _ []string) {},
		}
		serverCmd.AddCommand(startCmd)
		rootCmd.AddCommand(serverCmd)
		rootCmd.SetArgs(args)
		_ = rootCmd.Execute()
	}
}

func BenchmarkNestedCommands_Urfave(b *testing.B) {
	args := []string{"bench", "server", "start"}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		app := &cli.App{
			Name: "bench",
			Commands: []*cli.Command{
				{
					Name: "server",
					Subcommands: []*cli.Command{
						{
							Name:   "start",
							Action: func(_ *cli.Context) error { return nil },
						},
					},
				},
			},
		}
		_ = app.Run(args)
	}
}
