// Package demo is a small endpoint map served by dispatchd. It exercises
// every segment kind, validation of each parameter group, session-gated
// redirects and CSRF protection.
package demo

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/errutil"
	"github.com/sjc5/dispatch/pkg/middleware/csrftoken"
	"github.com/sjc5/dispatch/pkg/middleware/session"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/signedcookie"
	"github.com/sjc5/dispatch/pkg/tasks"
	"github.com/sjc5/dispatch/pkg/validate"
)

const (
	LoginURL      = "/login"
	SessionCookie = "dispatch_session"
	SessionTTL    = 24 * time.Hour
)

var ErrUserNotFound = errutil.New(http.StatusNotFound, "User not found")

type Session struct {
	UserID    int
	CSRFToken string
}

type (
	ListQuery struct {
		Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
	}
	UserParams struct {
		ID int `json:"id" validate:"required,min=1"`
	}
	PostParams struct {
		ID int `json:"id" validate:"omitempty,min=1"`
	}
	CreateUserInput struct {
		Name  string `json:"name" validate:"required,max=64"`
		Email string `json:"email" validate:"required,email"`
	}
	LoginInput struct {
		Name string `json:"name" validate:"required"`
	}
	AccountOutput struct {
		User      User   `json:"user"`
		CSRFToken string `json:"csrfToken"`
	}
	Message struct {
		Message string `json:"message"`
	}
)

type Opts struct {
	Store   *Store
	Secrets signedcookie.Secrets
	// PermittedHosts is passed to the CSRF check.
	PermittedHosts []string
}

// App holds the endpoint map and what the dispatcher needs to run it.
type App struct {
	Endpoints []dispatch.Endpoint
	Tasks     *tasks.Registry
	Store     *Store
	Sessions  *session.Manager[Session]
}

func New(opts Opts) (*App, error) {
	store := opts.Store
	if store == nil {
		store = NewStore()
	}
	cookies, err := signedcookie.NewManager(opts.Secrets)
	if err != nil {
		return nil, err
	}

	v := validate.New()
	registry := tasks.NewRegistry()
	sessions := session.NewManager(session.Opts[Session]{
		Cookie: session.NewCookie[Session](cookies, SessionCookie, SessionTTL),
	})
	required := sessions.Required(LoginURL)

	csrf := csrftoken.New(csrftoken.Opts{
		PermittedHosts: opts.PermittedHosts,
		GetExpectedCSRFToken: func(s *dispatch.Scope) (csrftoken.Token, csrftoken.SessionOK, error) {
			sess := sessions.Get(s)
			if sess == nil {
				return "", false, nil
			}
			return sess.CSRFToken, true, nil
		},
	})

	loadUser := tasks.New(registry, func(c *tasks.TasksCtxWithInput[int]) (User, error) {
		u, ok := store.User(c.Input)
		if !ok {
			return User{}, ErrUserNotFound
		}
		return u, nil
	})

	endpoints := []dispatch.Endpoint{
		{
			Identifier: "home",
			Template:   "/",
			Methods:    []string{http.MethodGet},
			Resolver: dispatch.Resolve(func(*dispatch.Scope) (Message, error) {
				return Message{Message: "Welcome"}, nil
			}),
			Meta: dispatch.EndpointMeta{Output: Message{}},
		},
		{
			// GET lists users, POST creates one and answers with it.
			Identifier: "users",
			Template:   "/users",
			Methods:    []string{http.MethodGet, http.MethodPost},
			Query:      validate.Query[ListQuery](v),
			Body:       bodyOn(http.MethodPost, validate.JSONBody[CreateUserInput](v)),
			Resolver: func(s *dispatch.Scope) (*response.Response, error) {
				if s.Request().Method() != http.MethodPost {
					return response.Data(store.Users(dispatch.QueryAs[ListQuery](s).Limit, false)), nil
				}
				in := dispatch.BodyAs[CreateUserInput](s)
				u, ok := store.CreateUser(in.Name, in.Email)
				if !ok {
					return nil, validate.NewError("email taken", nil).Add("email", "is already registered")
				}
				return response.Data(u).WithStatus(http.StatusCreated), nil
			},
			Meta: dispatch.EndpointMeta{Query: ListQuery{}, Body: CreateUserInput{}, Output: []User{}},
		},
		{
			Identifier: "users.active",
			Template:   "/users/active",
			Methods:    []string{http.MethodGet},
			Resolver: dispatch.Resolve(func(*dispatch.Scope) ([]User, error) {
				return store.Users(0, true), nil
			}),
			Meta: dispatch.EndpointMeta{Output: []User{}},
		},
		{
			Identifier: "users.show",
			Template:   "/users/:id",
			Methods:    []string{http.MethodGet},
			Path:       validate.Path[UserParams](v),
			Resolver: dispatch.Resolve(func(s *dispatch.Scope) (User, error) {
				return loadUser.Get(s.Tasks(), dispatch.ParamsAs[UserParams](s).ID)
			}),
			Meta: dispatch.EndpointMeta{Params: UserParams{}, Output: User{}},
		},
		{
			Identifier: "posts.show",
			Template:   "/posts/:id?",
			Methods:    []string{http.MethodGet},
			Path:       validate.Path[PostParams](v),
			Resolver: func(s *dispatch.Scope) (*response.Response, error) {
				id := dispatch.ParamsAs[PostParams](s).ID
				if id == 0 {
					return response.Data(store.Posts()), nil
				}
				p, ok := store.Post(id)
				if !ok {
					return nil, errutil.New(http.StatusNotFound, "Post not found")
				}
				return response.Data(p), nil
			},
			Meta: dispatch.EndpointMeta{Params: PostParams{}},
		},
		{
			Identifier:   "account",
			Template:     "/account",
			Methods:      []string{http.MethodGet},
			Interceptors: []dispatch.Interceptor{required.Interceptor()},
			Resolver: dispatch.Resolve(func(s *dispatch.Scope) (AccountOutput, error) {
				sess := required.Get(s)
				u, err := loadUser.Get(s.Tasks(), sess.UserID)
				if err != nil {
					return AccountOutput{}, err
				}
				return AccountOutput{User: u, CSRFToken: sess.CSRFToken}, nil
			}),
			Meta: dispatch.EndpointMeta{Output: AccountOutput{}},
		},
		{
			Identifier: "login",
			Template:   LoginURL,
			Methods:    []string{http.MethodGet, http.MethodPost},
			Body:       bodyOn(http.MethodPost, validate.JSONBody[LoginInput](v)),
			Resolver: func(s *dispatch.Scope) (*response.Response, error) {
				if s.Request().Method() != http.MethodPost {
					return response.Data(Message{Message: "Log in with a POST of your name"}), nil
				}
				u, ok := store.UserByName(dispatch.BodyAs[LoginInput](s).Name)
				if !ok {
					return response.Errorf(http.StatusUnauthorized, "Unknown user"), nil
				}
				token, err := csrftoken.GenerateToken()
				if err != nil {
					return nil, err
				}
				if err := sessions.Issue(s, &Session{UserID: u.ID, CSRFToken: token}); err != nil {
					return nil, err
				}
				return response.Go("/account"), nil
			},
			Meta: dispatch.EndpointMeta{Body: LoginInput{}, Output: Message{}},
		},
		{
			Identifier:   "logout",
			Template:     "/logout",
			Methods:      []string{http.MethodPost},
			Interceptors: []dispatch.Interceptor{sessions.Interceptor(), csrf},
			Resolver: func(s *dispatch.Scope) (*response.Response, error) {
				sessions.Clear(s)
				return response.Go("/"), nil
			},
		},
	}

	return &App{
		Endpoints: endpoints,
		Tasks:     registry,
		Store:     store,
		Sessions:  sessions,
	}, nil
}

// bodyOn runs fn only for method. Other methods leave the body group at its
// zero value.
func bodyOn(method string, fn validate.BodyFunc) validate.BodyFunc {
	return func(ctx context.Context, body io.Reader) (any, error) {
		if s := dispatch.ScopeFrom(ctx); s != nil && s.Request().Method() != method {
			return nil, nil
		}
		return fn(ctx, body)
	}
}
