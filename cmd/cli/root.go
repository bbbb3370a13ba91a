package main

import (
	"archifigureapi/appstate"
	"archifigureapi/client"
	"archifigureapi/services"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type session struct {
	client    *client.Client
	state     *appstate.AppState
	statePath string
	tokenPath string
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".archifigure"
	}
	return filepath.Join(dir, "archifigure")
}

func newRootCmd() *cobra.Command {
	var apiURL, stateDir string
	s := &session{}

	cmd := &cobra.Command{
		Use:   "archifigure",
		Short: "Drive the archifigure API from the terminal",
		Long: `archifigure uploads reference images, starts image and 3D model generations,
watches the provider queue and manages projects through the archifigure API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if apiURL == "" {
				apiURL = services.GetEnv("ARCHIFIGURE_API_URL", "http://localhost:8083")
			}
			s.statePath = filepath.Join(stateDir, "state.json")
			s.tokenPath = filepath.Join(stateDir, "token")

			state, err := appstate.Load(s.statePath)
			if err != nil {
				return err
			}
			s.state = state
			s.client = client.New(apiURL)
			if token, err := os.ReadFile(s.tokenPath); err == nil {
				s.client.Token = string(token)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if s.state == nil {
				return nil
			}
			return s.state.Save(s.statePath)
		},
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default $ARCHIFIGURE_API_URL or http://localhost:8083)")
	cmd.PersistentFlags().StringVar(&stateDir, "state-dir", defaultStateDir(), "directory holding the local session state")

	cmd.AddCommand(
		newLoginCmd(s),
		newUploadCmd(s),
		newGenerateImageCmd(s),
		newGenerateModelCmd(s),
		newWatchCmd(s),
		newProjectsCmd(s),
		newThemeCmd(s),
		newColorCmd(),
	)
	return cmd
}
