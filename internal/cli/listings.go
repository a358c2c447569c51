package cli

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/services"
	"github.com/spf13/cobra"
)

func newOrdersCommand(setup setupFunc) *cobra.Command {
	var (
		orgID  int
		status string
		mine   bool
		search string
		from   string
		to     string
	)

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List bookings",
		Long: `List bookings. Customers always see their own bookings, staff see every
booking the backend exposes to them, optionally narrowed by organization and status.`,
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			ctx := cmd.Context()
			session, err := requireSession(ctx, rt)
			if err != nil {
				return err
			}

			var orders []services.ServiceOrder
			if mine || session.EffectiveRole() == joalistay.RoleCustomer {
				orders, err = rt.services.Orders.Mine(ctx)
			} else {
				filters := services.OrderFilters{From: from, To: to}
				if orgID > 0 {
					filters.OrgID = &orgID
				}
				if status != "" {
					st, perr := services.ParseOrderStatus(status)
					if perr != nil {
						return perr
					}
					filters.Status = &st
				}
				orders, err = rt.services.Orders.All(ctx, filters)
			}
			if err != nil {
				return err
			}

			var names map[int]string
			if search != "" && !session.HasRole(joalistay.RoleCustomer) {
				names = services.UserNames(rt.services.Users.All(ctx))
			}
			orders = services.SearchOrders(orders, search, names)

			if rt.output == outputJSON {
				return writeJSON(rt.out, orders)
			}

			rows := make([][]string, 0, len(orders))
			for _, o := range orders {
				rows = append(rows, []string{
					strconv.Itoa(o.ID),
					o.ServiceName(),
					strconv.Itoa(o.Quantity),
					o.ScheduledFor,
					o.Status.String(),
				})
			}
			return writeTable(rt.out, "Bookings", []string{"ID", "Service", "Qty", "Scheduled", "Status"}, rows)
		}),
	}

	f := cmd.Flags()
	f.IntVar(&orgID, "org", 0, "organization id")
	f.StringVar(&status, "status", "", "order status (code or label)")
	f.BoolVar(&mine, "mine", false, "only my own bookings")
	f.StringVarP(&search, "search", "s", "", "filter by id, service or customer name")
	f.StringVar(&from, "from", "", "earliest date (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "latest date (YYYY-MM-DD)")
	return cmd
}

func newOrgsCommand(setup setupFunc) *cobra.Command {
	var orgType int

	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "List organizations",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			var filter *int
			if orgType > 0 {
				filter = &orgType
			}

			orgs := rt.services.Organizations.List(cmd.Context(), filter)
			if rt.output == outputJSON {
				return writeJSON(rt.out, orgs)
			}

			rows := make([][]string, 0, len(orgs))
			for _, o := range orgs {
				rows = append(rows, []string{strconv.Itoa(o.ID), o.Name, o.Email, o.Country, yesNo(o.IsActive)})
			}
			return writeTable(rt.out, "Organizations", []string{"ID", "Name", "Email", "Country", "Active"}, rows)
		}),
	}

	cmd.Flags().IntVar(&orgType, "type", 0, "organization type (1 hotels)")
	return cmd
}

func newServicesCommand(setup setupFunc) *cobra.Command {
	var orgID, typeID int
	var types bool

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List bookable services, or service types with --types",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			ctx := cmd.Context()

			if types {
				items := rt.services.Catalog.ServiceTypes(ctx)
				if rt.output == outputJSON {
					return writeJSON(rt.out, items)
				}
				rows := make([][]string, 0, len(items))
				for _, t := range items {
					rows = append(rows, []string{strconv.Itoa(t.ID), t.Name, t.Description})
				}
				return writeTable(rt.out, "Service types", []string{"ID", "Name", "Description"}, rows)
			}

			filters := services.ServiceFilters{}
			if orgID > 0 {
				filters.OrgID = &orgID
			}
			if typeID > 0 {
				filters.TypeID = &typeID
			}

			items := rt.services.Catalog.Services(ctx, filters)
			if rt.output == outputJSON {
				return writeJSON(rt.out, items)
			}
			rows := make([][]string, 0, len(items))
			for _, s := range items {
				rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, fmt.Sprintf("%.2f", s.Price), strconv.Itoa(s.OrgID)})
			}
			return writeTable(rt.out, "Services", []string{"ID", "Name", "Price", "Org"}, rows)
		}),
	}

	f := cmd.Flags()
	f.IntVar(&orgID, "org", 0, "organization id")
	f.IntVar(&typeID, "type", 0, "service type id")
	f.BoolVar(&types, "types", false, "list service types instead")
	return cmd
}

func newUsersCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		RunE: withRuntime(setup, func(cmd *cobra.Command, rt *runtime, _ []string) error {
			if _, err := requireSession(cmd.Context(), rt); err != nil {
				return err
			}

			users := rt.services.Users.All(cmd.Context())
			if rt.output == outputJSON {
				return writeJSON(rt.out, users)
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{strconv.Itoa(u.ID), u.Name, u.Email, u.Role, yesNo(u.IsActive)})
			}
			return writeTable(rt.out, "Users", []string{"ID", "Name", "Email", "Role", "Active"}, rows)
		}),
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
