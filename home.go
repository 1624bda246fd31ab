package folioadmin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folioadmin/remote"
	"github.com/eringen/folioadmin/views"
)

const recentActivity = 15

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	page := views.HomePage{}

	if bio, ok, err := a.Hooks.CurrentBio(ctx); err == nil && ok {
		page.Owner = bio.Name
	}
	labels := map[string]string{}
	for _, item := range a.nav() {
		labels[item.Name] = item.Label
	}
	for _, n := range a.Hooks.Counts(ctx) {
		item := views.CountItem{Label: labels[n.Name], Href: "/admin/" + n.Name + "/", Rows: n.Rows}
		if item.Label == "" {
			item.Label = n.Label
		}
		if n.Err != nil {
			if sessionRejected(n.Err) {
				return n.Err
			}
			item.Err = remote.Message(n.Err)
		}
		page.Counts = append(page.Counts, item)
	}

	recent, err := a.Journal.Recent(ctx, recentActivity)
	if err != nil {
		a.Logger.WithError(err).Warn("reading activity failed")
	}
	for _, act := range recent {
		page.Activity = append(page.Activity, views.ActivityItem{
			Entity: act.Entity, Action: act.Action, RowID: act.RowID, Actor: act.Actor, At: act.At,
		})
	}
	return a.page(c, http.StatusOK, "Overview", "home", a.Views.Home(page))
}
