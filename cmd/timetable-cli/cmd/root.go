package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"ctutimetable-backend/lib/resultcache"
	"ctutimetable-backend/lib/scrapers/htql"
	"ctutimetable-backend/lib/session"
	"ctutimetable-backend/lib/subjectstore"
	"ctutimetable-backend/lib/telemetry"
	"ctutimetable-backend/services/catalog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	baseUrl string
	caFile  string
	verbose bool
)

var (
	service *catalog.Service
	names   subjectstore.Store
)

var rootCmd = &cobra.Command{
	Use:   "timetable-cli",
	Short: "timetable-cli queries the CTU course registration portal directly.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		return setup(cmd.Context())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseUrl, "base-url", htql.DefaultBaseUrl, "Base url of the portal.")
	rootCmd.PersistentFlags().StringVar(&caFile, "ca-file", "", "PEM file with the root certificates of the portal.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

func closeNames() {
	if names != nil {
		names.Close()
	}
}

// setup builds the catalog without logging in, the first portal request does.
func setup(ctx context.Context) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	studentId := os.Getenv("STUDENT_ID")
	password := os.Getenv("PASSWORD")
	if studentId == "" || password == "" {
		return errors.New("you should specify your portal credentials in the environment variables STUDENT_ID and PASSWORD")
	}

	client, err := htql.NewClient(htql.ClientOptions{BaseUrl: baseUrl, CAFile: caFile})
	if err != nil {
		return err
	}
	names, err = subjectstore.Open(ctx, subjectstore.KindSQL, ":memory:")
	if err != nil {
		return err
	}

	service = catalog.NewService(catalog.Options{
		Scraper: client,
		Sessions: session.NewManager(client, session.Credentials{
			StudentId: studentId,
			Password:  password,
		}),
		Cache: resultcache.NewMemory(),
		Names: names,
		TTL:   time.Hour,
	})
	return nil
}

// execute runs the command line and releases the subject store whether or
// not the command succeeded.
func execute() error {
	defer closeNames()
	return rootCmd.Execute()
}

func Execute() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
