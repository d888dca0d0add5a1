package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/container"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

var checkAIPatient string

var checkAICmd = &cobra.Command{
	Use:   "check-ai",
	Short: "Generate sample patient notes to verify the AI configuration",
	Args:  cobra.NoArgs,
	RunE:  runCheckAI,
}

func init() {
	checkAICmd.Flags().StringVar(&checkAIPatient, "patient", "Test Patient", "patient name used in the sample request")
}

func runCheckAI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	writer, err := container.ProvideNotesWriter(&cfg.AI, logger)
	if err != nil {
		return err
	}
	if writer == nil {
		return fmt.Errorf("ai.api_key is not set (OPENAI_API_KEY)")
	}

	req := port.NotesRequest{
		ClinicName:  entity.DefaultClinicName,
		PatientName: checkAIPatient,
	}
	for _, item := range entity.DefaultItems {
		req.Services = append(req.Services, item.Description)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	notes, err := writer.GenerateNotes(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Model %s answered in %s:\n\n%s\n", cfg.AI.Model, time.Since(start).Round(time.Millisecond), notes)
	return nil
}
