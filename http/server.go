package http

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"microblog/auth"
	"microblog/crud"
	"microblog/domain"
	"microblog/views"
)

// Server provides the http functionality of this app, namely routing,
// request handling, and middleware. It performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router *mux.Router
	log    *zap.Logger
	views  *views.Renderer
	isProd bool

	us domain.UserService
	gs domain.GroupService
	ps domain.PostService
	cs domain.CommentService
	fs domain.FollowService
	is domain.ImageService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the app services passed in.
// rdb may be nil, which disables the index page cache.
func NewServer(
	isProd bool,
	csrfKey string,
	mediaRoot string,
	log *zap.Logger,
	rdb *redis.Client,
	cacheTTL time.Duration,
	services *crud.Services,
) (*Server, error) {

	v, err := views.New(log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: mux.NewRouter(),
		log:    log,
		views:  v,
		isProd: isProd,
		us:     services.User,
		gs:     services.Group,
		ps:     services.Post,
		cs:     services.Comment,
		fs:     services.Follow,
		is:     services.Image,
	}

	// Set up middleware that needs to run on every request. CSRF protection
	// only runs in production; local clients and the handler tests post
	// without a token.
	s.router.Use(s.recoverPanic, s.logRequest)
	if isProd {
		csrfMw := csrf.Protect([]byte(csrfKey), csrf.Secure(true), csrf.Path("/"))
		s.router.Use(csrfMw)
	}
	s.router.Use(s.authUser)

	// Registration order matters: every literal route has to come before
	// the /{username}/... catch-alls at the bottom.
	s.registerStaticRoutes(s.router, mediaRoot)
	s.registerAuthRoutes(s.router)
	s.registerPostRoutes(s.router, rdb, cacheTTL)
	s.registerGroupRoutes(s.router)
	s.registerFeedRoutes(s.router)
	s.registerProfileRoutes(s.router)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	return s, nil
}

// registerStaticRoutes serves uploaded media files.
func (s *Server) registerStaticRoutes(r *mux.Router, mediaRoot string) {
	r.PathPrefix("/media/").Handler(
		http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot))))
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) error {
	addr := ":" + strconv.Itoa(port)
	s.log.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.router)
}

// The authUser middleware tries to identify the requesting user by their
// remember-token cookie and puts them into the request context. Anonymous
// requests pass through untouched.
func (s *Server) authUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("remember_token")
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByRemember(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireAuth redirects anonymous callers to the login page, carrying the
// requested path so they land back where they wanted to go.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			http.Redirect(w, r, "/auth/login/?next="+r.URL.Path, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// The logRequest middleware writes one structured line per request.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// The recoverPanic middleware turns an unhandled panic into the 500 page.
func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.log.Error("panic while handling request",
					zap.Any("panic", p),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				s.renderServerError(w, r)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// base builds the template data shared by every page.
func (s *Server) base(r *http.Request) views.Base {
	return views.Base{
		User:      auth.GetUser(r.Context()),
		CSRFField: s.csrfField(r),
	}
}

// csrfField returns the hidden CSRF input for forms. Outside production
// the CSRF middleware does not run, so there is no token to render.
func (s *Server) csrfField(r *http.Request) template.HTML {
	if !s.isProd {
		return ""
	}
	return csrf.TemplateField(r)
}
