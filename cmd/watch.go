// -- cmd/watch.go --
package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/campuscat/seatwatch/internal/config"
	"github.com/campuscat/seatwatch/internal/notify"
	"github.com/campuscat/seatwatch/internal/observability"
	"github.com/campuscat/seatwatch/internal/portal"
	"github.com/campuscat/seatwatch/internal/session"
	"github.com/campuscat/seatwatch/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch one course section for open seats",
	Long: `Watch polls the portal's availability endpoint for a single course
section and rings an audible alert when seats open up. Expired credentials
are recovered automatically by driving the interactive login flow, including
the two-factor approval, in a headless browser.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("field", "", `full subject name, e.g. "Computer Science"`)
	watchCmd.Flags().String("subject", "", `subject abbreviation, e.g. "CS"`)
	watchCmd.Flags().String("course-number", "", `catalog number, e.g. "421"`)
	watchCmd.Flags().StringSlice("course-ids", nil, "reference numbers to match (empty = all sections)")
	watchCmd.Flags().Duration("interval", 0, "pause between successful polls")
	watchCmd.Flags().Duration("timeout", 0, "per-action wait ceiling during credential refresh")

	viper.BindPFlag("watch.field_name", watchCmd.Flags().Lookup("field"))
	viper.BindPFlag("watch.subject_code", watchCmd.Flags().Lookup("subject"))
	viper.BindPFlag("watch.course_number", watchCmd.Flags().Lookup("course-number"))
	viper.BindPFlag("watch.course_ids", watchCmd.Flags().Lookup("course-ids"))
	viper.BindPFlag("watch.interval", watchCmd.Flags().Lookup("interval"))
	viper.BindPFlag("watch.timeout", watchCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()

	cfg, err := config.NewConfigFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}
	if cfg.Watch.SubjectCode == "" || cfg.Watch.CourseNumber == "" {
		return errors.New("watch.subject_code and watch.course_number are required")
	}

	var ids any
	if len(cfg.Watch.CourseIDs) > 0 {
		ids = cfg.Watch.CourseIDs
	}
	target, err := portal.NewCourseTarget(cfg.Watch.FieldName, cfg.Watch.SubjectCode, cfg.Watch.CourseNumber, ids)
	if err != nil {
		return err
	}

	clientCfg := portal.NewClientConfig()
	clientCfg.Logger = logger
	fetcher := portal.NewFetcher(cfg.Portal.SearchURL, portal.NewHTTPClient(clientCfg), logger)
	refresher := session.NewRefresher(cfg, logger)
	beeper := notify.New()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watcher.New(fetcher, refresher, beeper, logger)
	if err := w.Watch(ctx, target, nil, cfg.Watch.Interval, cfg.Watch.Timeout); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Watch stopped.")
			return nil
		}
		return err
	}
	return nil
}
