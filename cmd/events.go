/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/exercise-tracker/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

var tailChannel string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events on the configured message broker",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to an event channel and log every event",
	Long: `Subscribes to user.created or exercise.logged on the configured broker
(rabbitmq, pubsub or kafka) and logs each event until interrupted. Usage:

	exercisetracker events tail --channel exercise.logged
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("no message broker configured; set MQ_BACKEND")
		}
		defer queue.Close()

		log.Info("tailing events", "channel", queue.Channel(tailChannel), "backend", cfg.MQ.Backend)
		err = queue.Subscribe(ctx, tailChannel, func(ctx context.Context, msg mq.Message) error {
			event, err := mq.DecodeEvent(msg)
			if err != nil {
				log.WarnContext(ctx, "skipping undecodable message", "message_id", msg.ID, "error", err)
				return nil
			}
			log.InfoContext(ctx, "event",
				"type", event.Type,
				"user_id", event.UserID,
				"username", event.Username,
				"exercise_id", event.ExerciseID,
				"duration", event.Duration,
				"date", event.Date,
				"occurred_at", event.OccurredAt)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)

	eventsTailCmd.Flags().StringVar(&tailChannel, "channel", "exercise.logged", "event channel to subscribe to")
}
