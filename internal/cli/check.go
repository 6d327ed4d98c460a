package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/carewatch/internal/monitor"
	"github.com/spf13/cobra"
)

var (
	healthReading monitor.HealthReading
	safetyReading monitor.SafetyReading
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a reading through a monitor",
	Long: `Run a reading through the health or safety monitor. When the majority
of the monitor's classifiers vote ALERT, your caretakers are notified.`,
}

var checkHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check vital signs",
	Long: `Check vital signs.

Examples:
  carewatch check health --heart-rate 72 --systolic 118 --diastolic 78 --oxygen 98 --glucose 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := apiClient.CheckHealth(context.Background(), healthReading)
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), renderOutcome(defaultTheme, out))
		return nil
	},
}

var checkSafetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Check movement and falls",
	Long: `Check movement and falls.
Movement: "No Movement", Sitting, Walking. Impact: Negligible, Low, Medium.

Examples:
  carewatch check safety --movement walking --impact negligible
  carewatch check safety --movement "no movement" --fall --impact medium`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := apiClient.CheckSafety(context.Background(), safetyReading)
		if err != nil {
			return fmt.Errorf("safety check: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), renderOutcome(defaultTheme, out))
		return nil
	},
}

func init() {
	hf := checkHealthCmd.Flags()
	hf.Float64Var(&healthReading.HeartRate, "heart-rate", 0, "heart rate in bpm")
	hf.Float64Var(&healthReading.BPSystolic, "systolic", 0, "systolic blood pressure in mmHg")
	hf.Float64Var(&healthReading.BPDiastolic, "diastolic", 0, "diastolic blood pressure in mmHg")
	hf.Float64Var(&healthReading.Oxygen, "oxygen", 0, "blood oxygen saturation in %")
	hf.Float64Var(&healthReading.Glucose, "glucose", 0, "blood glucose in mg/dL")
	for _, name := range []string{"heart-rate", "systolic", "diastolic", "oxygen", "glucose"} {
		_ = checkHealthCmd.MarkFlagRequired(name)
	}

	sf := checkSafetyCmd.Flags()
	sf.StringVar(&safetyReading.Movement, "movement", "", `movement: "No Movement", Sitting, Walking (required)`)
	sf.BoolVar(&safetyReading.Fall, "fall", false, "a fall was detected")
	sf.StringVar(&safetyReading.Impact, "impact", monitor.ImpactNegligible, "impact force: Negligible, Low, Medium")
	_ = checkSafetyCmd.MarkFlagRequired("movement")

	checkCmd.AddCommand(checkHealthCmd)
	checkCmd.AddCommand(checkSafetyCmd)
}
