package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
	"github.com/spf13/cobra"
)

func newLoginCommand(setup setupFunc) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			res, err := rt.client.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			if res.Outcome == joalistay.LoginInitialPasswordRequired && res.Challenge != nil {
				fmt.Fprintf(rt.out, "A new password is required. Run:\n  joalistay reset-password --email %s --code %s --new-password <password>\n",
					res.Challenge.Email, res.Challenge.Code)
				return nil
			}

			fmt.Fprintf(rt.out, "Logged in as %s (%s)\n", displayName(res.Session), res.Session.EffectiveRole())
			return nil
		}),
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			if err := rt.client.Auth.Logout(cmd.Context()); err != nil {
				rt.logger.Warn("Logout call failed, local session cleared", "error", err)
			}
			fmt.Fprintln(rt.out, "Logged out")
			return nil
		}),
	}
}

func newWhoamiCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			session, err := requireSession(cmd.Context(), rt)
			if err != nil {
				return err
			}

			expires := "unknown"
			claims, err := joalistay.DecodeToken(session.AccessToken)
			if err == nil && !claims.ExpiresAt().IsZero() {
				expires = claims.ExpiresAt().Local().Format(time.RFC1123)
				if claims.Expired(time.Now()) {
					expires += " (expired)"
				}
			}

			org := ""
			if session.OrgID != nil {
				org = fmt.Sprint(*session.OrgID)
			}

			if rt.output == outputJSON {
				return writeJSON(rt.out, map[string]any{
					"userId":     session.UserID,
					"name":       session.UserName,
					"email":      session.UserEmail,
					"role":       session.Role,
					"staffRole":  session.StaffRoleLabel,
					"orgId":      session.OrgID,
					"hasBooking": session.HasBooking,
					"expires":    expires,
				})
			}

			return writeDetails(rt.out, "Session", [][2]string{
				{"User", session.UserID},
				{"Name", session.UserName},
				{"Email", session.UserEmail},
				{"Role", session.Role},
				{"Staff role", session.StaffRoleLabel},
				{"Organization", org},
				{"Has booking", fmt.Sprint(session.HasBooking)},
				{"Expires", expires},
				{"Landing", joalistay.LandingPath(session)},
			})
		}),
	}
}

func newRefreshCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the stored token pair",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			if _, err := requireSession(cmd.Context(), rt); err != nil {
				return err
			}

			ok, err := rt.client.Auth.RefreshToken(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("refresh rejected, log in again", errors.CategoryAuth)
			}
			fmt.Fprintln(rt.out, "Tokens refreshed")
			return nil
		}),
	}
}

func newResetPasswordCommand(setup setupFunc) *cobra.Command {
	var email, code, newPassword string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set the first password of a provisioned account",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			if err := rt.client.Auth.ResetInitialPassword(cmd.Context(), email, code, newPassword); err != nil {
				return err
			}
			fmt.Fprintln(rt.out, "Password set, you can log in now")
			return nil
		}),
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&code, "code", "", "temporary key from the login challenge")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "new password")
	for _, name := range []string{"email", "code", "new-password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func displayName(s joalistay.Session) string {
	if name := strings.TrimSpace(s.UserName); name != "" {
		return name
	}
	return s.UserEmail
}
