package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/faceapi"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage enrolled users",
	Long:  `List, inspect, delete and activate or deactivate users enrolled in the face service.`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled users",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one enrolled user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersGet,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete enrolled users",
	Long: `Delete one or more enrolled users from the face service.

Examples:
  # Delete a single user
  face-enroll users delete 42

  # Delete several users
  face-enroll users delete 42 43 44`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUsersDelete,
}

var usersStatusCmd = &cobra.Command{
	Use:       "status <id> active|inactive",
	Short:     "Activate or deactivate an enrolled user",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{constants.StatusActive, constants.StatusInactive},
	RunE:      runUsersStatus,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersGetCmd, usersDeleteCmd, usersStatusCmd)

	usersListCmd.Flags().Bool("json", false, "Output as JSON")
	usersGetCmd.Flags().Bool("json", false, "Output as JSON")
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, _, err := newFaceClient(cfg)
	if err != nil {
		return err
	}

	users, err := client.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if jsonOutput {
		return printJSON(users)
	}

	if len(users) == 0 {
		fmt.Println("No enrolled users.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCCCD\tNAME\tGENDER\tENROLLED\tSTATUS")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.IDNumber, u.DisplayName(), u.Gender, u.EnrollmentDate, u.Status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d user(s)\n", len(users))
	return nil
}

func runUsersGet(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, _, err := newFaceClient(cfg)
	if err != nil {
		return err
	}

	user, err := client.GetUser(cmd.Context(), id)
	if err != nil {
		if faceapi.IsNotFoundError(err) {
			return fmt.Errorf("user %d not found", id)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if jsonOutput {
		return printJSON(user)
	}
	printUser(user)
	return nil
}

func printUser(u *faceapi.UserRecord) {
	fmt.Printf("User %d\n", u.ID)
	rows := []struct{ label, value string }{
		{"Name", u.DisplayName()},
		{"CCCD", u.IDNumber},
		{"Gender", u.Gender},
		{"Birth date", u.BirthDate},
		{"Address", u.PermanentAddress},
		{"Email", u.Email},
		{"Department", u.Department},
		{"Enrolled", u.EnrollmentDate},
		{"Status", u.Status},
		{"Image", u.ImageURL},
	}
	for _, r := range rows {
		if r.value != "" {
			fmt.Printf("  %-11s %s\n", r.label+":", r.value)
		}
	}
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseUserID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, _, err := newFaceClient(cfg)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetDescription("Deleting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("users"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var deleteErrors []string
	for _, id := range ids {
		if _, err := client.DeleteUser(cmd.Context(), id); err != nil {
			deleteErrors = append(deleteErrors, fmt.Sprintf("user %d: %v", id, err))
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	for _, msg := range deleteErrors {
		fmt.Printf("Failed: %s\n", msg)
	}
	deleted := len(ids) - len(deleteErrors)
	fmt.Printf("Deleted %d of %d user(s)\n", deleted, len(ids))

	if len(deleteErrors) > 0 {
		return fmt.Errorf("%d deletion(s) failed", len(deleteErrors))
	}
	return nil
}

func runUsersStatus(cmd *cobra.Command, args []string) error {
	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}
	status := args[1]
	if status != constants.StatusActive && status != constants.StatusInactive {
		return fmt.Errorf("invalid status %q (use %s or %s)", status, constants.StatusActive, constants.StatusInactive)
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, _, err := newFaceClient(cfg)
	if err != nil {
		return err
	}

	conf, err := client.UpdateUserStatus(cmd.Context(), id, status)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	msg := conf.Message
	if msg == "" {
		msg = fmt.Sprintf("User %d is now %s", id, status)
	}
	fmt.Println(msg)
	return nil
}
