package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/EldonT123/bs-reviews/internal/handler"
)

// The rate limiter is applied per group, after the auth middleware, so its
// key strategies can see the authenticated principal.  Open routes get the
// limiter directly and are keyed as "guest".  The health check is exempt.

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterUsers registers the account endpoints.  Signup and login are open;
// everything else requires a bearer session id.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, auth, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/users", limit)
	g.POST("/signup", u.Signup)
	g.POST("/login", u.Login)

	me := e.Group("/v1/users", auth, limit)
	me.POST("/logout", u.Logout)
	me.GET("/me", u.Me)
	me.PUT("/me/username", u.SetUsername)
	me.GET("/me/bookmarks", u.ListBookmarks)
	me.POST("/me/bookmarks", u.AddBookmark)
	me.DELETE("/me/bookmarks/:movie", u.RemoveBookmark)
}

// RegisterAdmin registers the admin endpoints.  Only login is open; every
// other route requires the X-Admin-Token header.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, adminAuth, limit echo.MiddlewareFunc) {
	e.POST("/v1/admin/login", a.Login, limit)

	g := e.Group("/v1/admin", adminAuth, limit)
	g.POST("/logout", a.Logout)
	g.GET("/users", a.ListUsers)
	g.DELETE("/users/:email", a.DeleteUser)
	g.PUT("/users/:email/tier", a.SetTier)
	g.POST("/users/:email/tokens", a.AddTokens)
	g.DELETE("/users/:email/tokens", a.RemoveTokens)
	g.POST("/users/:email/review-ban", a.ReviewBan)
	g.DELETE("/users/:email/review-ban", a.ReviewUnban)
	g.POST("/bans", a.PermanentBan)
	g.DELETE("/bans/:email", a.Unban)
	g.GET("/bans", a.ListBans)
	g.POST("/movies", a.CreateMovie)
	g.DELETE("/movies/:folder", a.DeleteMovie)
	g.POST("/reviews/:movie/:email/report", a.HandleReport)
}

// RegisterReviews registers the review endpoints.  Listing is public (with
// optional authentication handled inside the handler); mutations require a
// session.
func RegisterReviews(e *echo.Echo, r *handler.ReviewHandler, auth, limit echo.MiddlewareFunc) {
	e.GET("/v1/reviews/:movie", r.List, limit)

	g := e.Group("/v1/reviews", auth, limit)
	g.POST("/:movie", r.Create)
	g.PUT("/:movie", r.Update)
	g.DELETE("/:movie", r.Delete)
	g.POST("/:movie/:email/like", r.Like)
	g.POST("/:movie/:email/dislike", r.Dislike)
	g.POST("/:movie/:email/report", r.Report)
}

// RegisterSearch registers the unauthenticated catalog search endpoints.
func RegisterSearch(e *echo.Echo, s *handler.SearchHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/search", limit)
	g.GET("/title", s.ByTitle)
	g.GET("/genre", s.ByGenre)
	g.GET("/year", s.ByYear)
	g.GET("/dates", s.ByDateRange)
	g.GET("/advanced", s.Advanced)
}

// RegisterStore registers the store endpoints.  The catalog is public;
// purchasing and history require a session.
func RegisterStore(e *echo.Echo, st *handler.StoreHandler, auth, limit echo.MiddlewareFunc) {
	e.GET("/v1/store/items", st.Items, limit)

	g := e.Group("/v1/store", auth, limit)
	g.POST("/purchase", st.Purchase)
	g.GET("/history", st.History)
}
