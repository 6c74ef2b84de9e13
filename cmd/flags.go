package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-enroll/internal/enrollment"
)

// draftFlags maps each draft field onto the enroll flag that fills it, in form order.
var draftFlags = []struct {
	field enrollment.Field
	flag  string
	usage string
}{
	{enrollment.FieldIDNumber, "id", "CCCD number (12 digits)"},
	{enrollment.FieldFullName, "name", "Full name"},
	{enrollment.FieldGender, "gender", "Gender (male, female, other)"},
	{enrollment.FieldBirthDate, "birth-date", "Birth date (YYYY-MM-DD)"},
	{enrollment.FieldAddress, "address", "Permanent address"},
}

// addDraftFlags registers one string flag per draft field.
func addDraftFlags(cmd *cobra.Command) {
	for _, d := range draftFlags {
		cmd.Flags().String(d.flag, "", d.usage)
	}
}

// mustGetDraft collects the draft field values given on the command line.
func mustGetDraft(cmd *cobra.Command) map[enrollment.Field]string {
	values := make(map[enrollment.Field]string, len(draftFlags))
	for _, d := range draftFlags {
		values[d.field] = mustGetString(cmd, d.flag)
	}
	return values
}

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// Flags are registered in init(), so a lookup error is a programming bug.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetInt gets an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}
