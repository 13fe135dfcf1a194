package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/middleware"
	"github.com/dukerupert/larder/internal/objectstore"
	"github.com/dukerupert/larder/internal/push"
	"github.com/dukerupert/larder/internal/store"
	ws "github.com/dukerupert/larder/internal/websocket"
)

const (
	ingestRateLimit  = 20
	ingestRateWindow = time.Minute
)

// Deps are the collaborators built by main from configuration. Images and
// Push are nil when their subsystem is not configured.
type Deps struct {
	DB             *sql.DB
	Verifier       middleware.TokenVerifier
	Ingester       handler.Ingester
	Images         *objectstore.Store
	Push           *push.Service
	OriginPatterns []string
	Logger         *slog.Logger
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	verifier       middleware.TokenVerifier
	originPatterns []string
	meH            *handler.MeHandler
	householdH     *handler.HouseholdHandler
	ingredientH    *handler.IngredientHandler
	pantryH        *handler.PantryHandler
	recipeH        *handler.RecipeHandler
	shoppingH      *handler.ShoppingHandler
	ingestH        *handler.IngestHandler
	pushH          *handler.PushHandler
	userStore      *store.UserStore
	pushStore      *store.PushStore
	rateLimiter    *middleware.RateLimiter
	pushScheduler  *push.Scheduler
	logger         *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	hub := ws.NewHub(logger)

	userStore := store.NewUserStore(d.DB)
	householdStore := store.NewHouseholdStore(d.DB)
	ingredientStore := store.NewIngredientStore(d.DB)
	pantryStore := store.NewPantryStore(d.DB)
	recipeStore := store.NewRecipeStore(d.DB)
	shoppingStore := store.NewShoppingStore(d.DB)
	pushStore := store.NewPushStore(d.DB)

	// Typed nils must not leak into the handler interfaces.
	var images handler.ImageStore
	if d.Images != nil {
		images = d.Images
	}
	var notifier handler.ShoppingNotifier
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if d.Push != nil {
		pushSched = push.NewScheduler(d.Push, pushStore, pantryStore, logger)
		notifier = pushSched
		pushH = handler.NewPushHandler(pushStore, d.Push.VAPIDPublicKey(), logger.With("component", "push_handler"))
	}

	return &Server{
		db:             d.DB,
		hub:            hub,
		verifier:       d.Verifier,
		originPatterns: d.OriginPatterns,
		meH:            handler.NewMeHandler(userStore, householdStore, logger.With("component", "me")),
		householdH:     handler.NewHouseholdHandler(householdStore, hub, logger.With("component", "household")),
		ingredientH:    handler.NewIngredientHandler(ingredientStore, logger.With("component", "ingredient")),
		pantryH:        handler.NewPantryHandler(pantryStore, ingredientStore, hub, logger.With("component", "pantry")),
		recipeH:        handler.NewRecipeHandler(recipeStore, pantryStore, images, hub, logger.With("component", "recipe")),
		shoppingH:      handler.NewShoppingHandler(shoppingStore, notifier, hub, logger.With("component", "shopping")),
		ingestH:        handler.NewIngestHandler(d.Ingester, userStore, pantryStore, hub, logger.With("component", "ingest")),
		pushH:          pushH,
		userStore:      userStore,
		pushStore:      pushStore,
		rateLimiter:    middleware.NewRateLimiter(),
		pushScheduler:  pushSched,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the push notification scheduler, or nil when push
// is not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.verifier, s.userStore, s.logger.With("component", "auth"))
	outerMux.Handle("/", authMiddleware(protectedMux))

	var h http.Handler = outerMux
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = chimw.Recoverer(h)
	h = chimw.RequestID(h)
	return h
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// member wraps routes that only make sense inside a household.
func member(h http.HandlerFunc) http.Handler {
	return middleware.RequireHousehold(h)
}

func (s *Server) rateLimited(h http.Handler) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.UserKey, ingestRateLimit, ingestRateWindow)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// User
	mux.HandleFunc("GET /api/me", s.meH.Get)
	mux.HandleFunc("PUT /api/me/preferences", s.meH.UpdatePreferences)

	// Household registry
	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.HandleFunc("POST /api/household", s.householdH.Create)
	mux.HandleFunc("POST /api/household/ensure", s.householdH.Ensure)
	mux.HandleFunc("POST /api/household/join", s.householdH.Join)
	mux.HandleFunc("POST /api/household/leave", s.householdH.Leave)
	mux.Handle("POST /api/household/invite-code", member(s.householdH.RegenerateInviteCode))
	mux.Handle("PUT /api/household/name", member(s.householdH.UpdateName))

	// Ingredient catalog
	mux.HandleFunc("GET /api/ingredients", s.ingredientH.List)

	// Pantry
	mux.Handle("GET /api/pantry", member(s.pantryH.List))
	mux.Handle("GET /api/pantry/expiring", member(s.pantryH.Expiring))
	mux.Handle("POST /api/pantry", member(s.pantryH.Create))
	mux.Handle("POST /api/pantry/batch", member(s.pantryH.Batch))
	mux.Handle("PUT /api/pantry/{id}", member(s.pantryH.Update))
	mux.Handle("DELETE /api/pantry/{id}", member(s.pantryH.Delete))

	// Recipes
	mux.Handle("GET /api/recipes", member(s.recipeH.List))
	mux.Handle("GET /api/recipes/cookable", member(s.recipeH.Cookable))
	mux.Handle("POST /api/recipes", member(s.recipeH.Create))
	mux.Handle("POST /api/recipes/draft", member(s.recipeH.SaveDraft))
	mux.Handle("GET /api/recipes/{id}", member(s.recipeH.Get))
	mux.Handle("DELETE /api/recipes/{id}", member(s.recipeH.Delete))
	mux.Handle("POST /api/recipes/{id}/ingredients", member(s.recipeH.AddIngredient))
	mux.Handle("POST /api/recipes/{id}/cook", member(s.recipeH.Cook))
	mux.Handle("PUT /api/recipes/{id}/image", member(s.recipeH.UploadImage))

	// Shopping
	mux.Handle("GET /api/shopping", member(s.shoppingH.Active))
	mux.Handle("GET /api/shopping/lists", member(s.shoppingH.History))
	mux.Handle("POST /api/shopping/lists", member(s.shoppingH.CreateList))
	mux.Handle("POST /api/shopping/lists/{id}/clear", member(s.shoppingH.ClearList))
	mux.Handle("POST /api/shopping/lists/{id}/clear-purchased", member(s.shoppingH.ClearPurchased))
	mux.Handle("POST /api/shopping/items", member(s.shoppingH.AddItem))
	mux.Handle("PUT /api/shopping/items/{id}", member(s.shoppingH.UpdateItem))
	mux.Handle("DELETE /api/shopping/items/{id}", member(s.shoppingH.DeleteItem))
	mux.Handle("POST /api/shopping/items/{id}/toggle", member(s.shoppingH.TogglePurchased))

	// Ingestion
	mux.Handle("POST /api/ingest/text", s.rateLimited(member(s.ingestH.Text)))
	mux.Handle("POST /api/ingest/receipt", s.rateLimited(member(s.ingestH.Receipt)))
	mux.Handle("POST /api/ingest/recipe-image", s.rateLimited(member(s.ingestH.RecipeImage)))
	mux.Handle("POST /api/ingest/recipe-search", s.rateLimited(member(s.ingestH.RecipeSearch)))

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.Handle("POST /api/push/subscribe", member(s.pushH.Subscribe))
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/preferences", s.pushH.GetPreferences)
		mux.HandleFunc("PUT /api/push/preferences", s.pushH.UpdatePreferences)
	}

	// WebSocket
	mux.Handle("GET /ws", member(ws.HandleWebSocket(s.hub, s.originPatterns)))
}
