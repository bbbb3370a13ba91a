package main

import (
	"archifigureapi/appstate"
	"archifigureapi/models"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLoginCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "login [password]",
		Short: "Exchange the app password for an access token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("APP_PASSWORD")
			if len(args) == 1 {
				password = args[0]
			}
			token, err := s.client.Login(cmd.Context(), password)
			if err != nil {
				s.state.Authenticated.Set(false)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(s.tokenPath), 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(s.tokenPath, []byte(token), 0o600); err != nil {
				return err
			}
			s.state.Authenticated.Set(true)
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			return nil
		},
	}
}

func newUploadCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a reference image and print its public URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, err := s.client.UploadImage(cmd.Context(), filepath.Base(args[0]), content)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newGenerateImageCmd(s *session) *cobra.Command {
	var aspectRatio string
	cmd := &cobra.Command{
		Use:   "generate-image <prompt>",
		Short: "Generate a reference image from a text prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{"prompt": args[0]}
			if aspectRatio != "" {
				input["aspect_ratio"] = aspectRatio
			}
			out, err := s.client.GenerateImage(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&aspectRatio, "aspect-ratio", "", "aspect ratio passed to the image model, e.g. 1:1")
	return cmd
}

func newGenerateModelCmd(s *session) *cobra.Command {
	var in models.GenerateModelIn
	var resolution, steps, seed int
	var guidance float64
	var keepBackground bool
	cmd := &cobra.Command{
		Use:   "generate-model",
		Short: "Start a 3D model generation from an image URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Image == "" {
				return errors.New("--image is required")
			}
			if cmd.Flags().Changed("resolution") {
				in.OctreeResolution = &resolution
			}
			if cmd.Flags().Changed("steps") {
				in.Steps = &steps
			}
			if cmd.Flags().Changed("guidance") {
				in.GuidanceScale = &guidance
			}
			if cmd.Flags().Changed("seed") {
				in.Seed = &seed
			}
			if keepBackground {
				removeBackground := false
				in.RemoveBackground = &removeBackground
			}
			prediction, err := s.client.GenerateModel(cmd.Context(), in)
			if err != nil {
				return err
			}
			pending := models.PendingSubmission{
				ID:        prediction.ID,
				Status:    prediction.Status,
				Input:     prediction.Input,
				CreatedAt: prediction.CreatedAt,
			}
			if projectID := s.state.CurrentProjectID.Get(); projectID != "" {
				pending.ProjectID = &projectID
			}
			s.state.AddPending(pending)
			return printJSON(cmd, prediction)
		},
	}
	cmd.Flags().StringVar(&in.Image, "image", "", "URL of the input image")
	cmd.Flags().IntVar(&resolution, "resolution", 256, "octree resolution")
	cmd.Flags().IntVar(&steps, "steps", 50, "inference steps")
	cmd.Flags().Float64Var(&guidance, "guidance", 5.5, "guidance scale")
	cmd.Flags().IntVar(&seed, "seed", 0, "seed, random when unset")
	cmd.Flags().BoolVar(&keepBackground, "keep-background", false, "do not remove the image background")
	return cmd
}

func printPredictions(cmd *cobra.Command, predictions []models.Prediction, pending []models.PendingSubmission) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tMESH")
	for _, p := range predictions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Status, p.CreatedAt, p.MeshURL())
	}
	for _, p := range pending {
		fmt.Fprintf(w, "%s\t%s (local)\t%s\t\n", p.ID, p.Status, p.CreatedAt)
	}
	return w.Flush()
}

func newWatchCmd(s *session) *cobra.Command {
	var interval time.Duration
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the prediction list and reconcile local pending submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				predictions, err := s.client.Predictions(cmd.Context())
				if err != nil {
					return err
				}
				s.state.ReconcilePending(predictions)
				if err := printPredictions(cmd, predictions, s.state.PendingSubmissions.Get()); err != nil {
					return err
				}
				if once {
					return nil
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "poll interval")
	cmd.Flags().BoolVar(&once, "once", false, "poll a single time")
	return cmd
}

func newProjectsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List, create and select projects",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := s.client.Projects(cmd.Context())
			if err != nil {
				return err
			}
			s.state.Projects.Set(projects)
			current := s.state.CurrentProjectID.Get()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tNAME\tUPDATED")
			for _, p := range projects {
				marker := ""
				if p.ID == current {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, p.ID, p.Name, p.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project, or reuse the one with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := s.client.CreateProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if project == nil {
				return errors.New("project could not be saved")
			}
			s.state.CurrentProjectID.Set(project.ID)
			return printJSON(cmd, project)
		},
	}

	use := &cobra.Command{
		Use:   "use <project-id>",
		Short: "Select the project new generations belong to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s.state.CurrentProjectID.Set(args[0])
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models [project-id]",
		Short: "List the models saved in a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := s.state.CurrentProjectID.Get()
			if len(args) == 1 {
				projectID = args[0]
			}
			if projectID == "" {
				return errors.New("no project selected")
			}
			projectModels, err := s.client.ProjectModels(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			return printJSON(cmd, projectModels)
		},
	}

	cmd.AddCommand(list, create, use, modelsCmd)
	return cmd
}

func newThemeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the preferred theme",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(appstate.ThemeLight), string(appstate.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				s.state.Theme.Set(appstate.Theme(args[0]))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (dark mode: %t)\n", s.state.Theme.Get(), s.state.IsDarkMode.Get())
			return nil
		},
	}
}

func newColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "color <kelvin>",
		Short: "Print the rgb() color used to preview a light temperature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kelvin, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid temperature %q: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), appstate.TempToColor(kelvin))
			return nil
		},
	}
}
