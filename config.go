package auth

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds session core options
type Config interface {
	GetSignInPath() string
	GetLandingPath() string
	GetProtectedRoutes() []string
	GetPendingDestinationTTL() time.Duration
	GetPasswordMinLength() int
	GetDefaultPhotoURL() string
	GetSuspendTimeout() time.Duration
}

const (
	DefaultSignInPath            = "/login"
	DefaultLandingPath           = "/"
	DefaultPendingDestinationTTL = 5 * time.Minute
	DefaultPasswordMinLength     = 6
	DefaultPhotoURL              = "https://i.postimg.cc/RVgJYLjg/avatar-placeholder.png"
	DefaultSuspendTimeout        = 3 * time.Second
)

// DefaultProtectedRoutes are the views that need a signed in user.
var DefaultProtectedRoutes = []string{"/profile", "/skills/*"}

var _ Config = Options{}

// Options is the plain struct implementation of Config. Zero values fall back
// to the package defaults.
type Options struct {
	SignInPath            string        `koanf:"sign_in_path" json:"sign_in_path"`
	LandingPath           string        `koanf:"landing_path" json:"landing_path"`
	ProtectedRoutes       []string      `koanf:"protected_routes" json:"protected_routes"`
	PendingDestinationTTL time.Duration `koanf:"pending_destination_ttl" json:"pending_destination_ttl"`
	PasswordMinLength     int           `koanf:"password_min_length" json:"password_min_length"`
	DefaultPhotoURL       string        `koanf:"default_photo_url" json:"default_photo_url"`
	SuspendTimeout        time.Duration `koanf:"suspend_timeout" json:"suspend_timeout"`
}

func (o Options) GetSignInPath() string {
	if o.SignInPath == "" {
		return DefaultSignInPath
	}
	return o.SignInPath
}

func (o Options) GetLandingPath() string {
	if o.LandingPath == "" {
		return DefaultLandingPath
	}
	return o.LandingPath
}

func (o Options) GetProtectedRoutes() []string {
	if o.ProtectedRoutes == nil {
		return append([]string(nil), DefaultProtectedRoutes...)
	}
	return append([]string(nil), o.ProtectedRoutes...)
}

func (o Options) GetPendingDestinationTTL() time.Duration {
	if o.PendingDestinationTTL <= 0 {
		return DefaultPendingDestinationTTL
	}
	return o.PendingDestinationTTL
}

func (o Options) GetPasswordMinLength() int {
	if o.PasswordMinLength <= 0 {
		return DefaultPasswordMinLength
	}
	return o.PasswordMinLength
}

func (o Options) GetDefaultPhotoURL() string {
	if o.DefaultPhotoURL == "" {
		return DefaultPhotoURL
	}
	return o.DefaultPhotoURL
}

func (o Options) GetSuspendTimeout() time.Duration {
	if o.SuspendTimeout <= 0 {
		return DefaultSuspendTimeout
	}
	return o.SuspendTimeout
}

// PasswordPolicyFromConfig derives the password policy from cfg.
func PasswordPolicyFromConfig(cfg Config) PasswordPolicy {
	policy := DefaultPasswordPolicy()
	if cfg != nil {
		policy.MinLength = cfg.GetPasswordMinLength()
	}
	return policy
}

// LoadOptions reads options from a YAML file. Durations use Go syntax, e.g. "5m".
func LoadOptions(path string) (Options, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Options{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session config").
			WithMetadata(map[string]any{"path": path})
	}

	opts := Options{}
	if err := k.Unmarshal("", &opts); err != nil {
		return Options{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to decode session config").
			WithMetadata(map[string]any{"path": path})
	}

	return opts, nil
}
