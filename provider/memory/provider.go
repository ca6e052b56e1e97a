package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	auth "github.com/goliatone/go-auth-session"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const providerLoggerName = "auth.provider.memory"

// ProviderCodeNoCurrentUser is reported by UpdateProfile when nobody is signed in.
const ProviderCodeNoCurrentUser = "auth/no-current-user"

// Operation names a provider call, used for failure injection and call records.
type Operation string

const (
	OpObserve         Operation = "observe"
	OpRegister        Operation = "register"
	OpSignIn          Operation = "sign_in"
	OpSignInFederated Operation = "sign_in_federated"
	OpSignOut         Operation = "sign_out"
	OpUpdateProfile   Operation = "update_profile"
	OpPasswordReset   Operation = "password_reset"
)

// Call is a recorded provider invocation.
type Call struct {
	Op    Operation
	Email string
}

// FederatedFlow stands in for the interactive federated sign-in popup.
type FederatedFlow func(ctx context.Context) (auth.Identity, error)

// DefaultFederatedIdentity is returned by the default federated flow.
var DefaultFederatedIdentity = auth.Identity{
	DisplayName: "Federated User",
	Email:       "federated.user@example.com",
	PhotoURL:    auth.DefaultPhotoURL,
}

// Option customizes a Provider.
type Option func(*Provider)

// WithPasswordCost sets the bcrypt cost used for new accounts.
func WithPasswordCost(cost int) Option {
	return func(p *Provider) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			p.cost = cost
		}
	}
}

// WithFederatedFlow replaces the federated sign-in flow.
func WithFederatedFlow(flow FederatedFlow) Option {
	return func(p *Provider) {
		if flow != nil {
			p.federated = flow
		}
	}
}

// WithDeferredNotifications queues observer notifications until Flush is
// called, simulating an observer that lags behind the operations.
func WithDeferredNotifications() Option {
	return func(p *Provider) {
		p.deferred = true
	}
}

// WithLogger overrides the provider logger.
func WithLogger(logger auth.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.loggerProvider, p.logger = auth.ResolveLogger(providerLoggerName, nil, logger)
		}
	}
}

// WithLoggerProvider resolves the provider logger from lp.
func WithLoggerProvider(lp auth.LoggerProvider) Option {
	return func(p *Provider) {
		if lp != nil {
			p.loggerProvider, p.logger = auth.ResolveLogger(providerLoggerName, lp, p.logger)
		}
	}
}

type account struct {
	identity     auth.Identity
	passwordHash string
}

var (
	_ auth.IdentityProvider = (*Provider)(nil)
	_ auth.PasswordResetter = (*Provider)(nil)
)

// Provider is an in-memory identity provider. Like a hosted provider it
// signs new accounts in and pushes every sign-in and sign-out to observers.
// Profile updates are not pushed.
type Provider struct {
	mu        sync.Mutex
	accounts  map[string]*account
	current   *auth.Identity
	observers map[uint64]auth.SessionObserver
	nextID    uint64

	// dispatchMu is taken before mu is released so observers see changes in
	// the order they were made.
	dispatchMu sync.Mutex

	deferred bool
	queue    []*auth.Identity

	failures    map[Operation][]string
	calls       []Call
	resetEmails []string

	cost      int
	federated FederatedFlow

	logger         auth.Logger
	loggerProvider auth.LoggerProvider
}

// New creates an empty provider.
func New(opts ...Option) *Provider {
	loggerProvider, logger := auth.ResolveLogger(providerLoggerName, nil, nil)
	p := &Provider{
		accounts:       map[string]*account{},
		observers:      map[uint64]auth.SessionObserver{},
		failures:       map[Operation][]string{},
		cost:           bcrypt.DefaultCost,
		logger:         logger,
		loggerProvider: loggerProvider,
	}
	p.federated = p.defaultFederatedFlow

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// ObserveSession registers observer and reports the current user right away.
func (p *Provider) ObserveSession(ctx context.Context, observer auth.SessionObserver) (auth.Unsubscribe, error) {
	if observer == nil {
		return nil, errors.New("memory provider: nil observer")
	}

	p.mu.Lock()
	p.record(OpObserve, "")
	if err := p.takeFailure(OpObserve); err != nil {
		p.mu.Unlock()
		return nil, err
	}

	id := p.nextID
	p.nextID++
	p.observers[id] = observer
	current := copyIdentity(p.current)

	if p.deferred {
		p.queue = append(p.queue, current)
		p.mu.Unlock()
	} else {
		p.dispatchMu.Lock()
		p.mu.Unlock()
		observer(current)
		p.dispatchMu.Unlock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
		})
	}, nil
}

// Register creates an account and signs it in.
func (p *Provider) Register(ctx context.Context, email, password string) (auth.Identity, error) {
	key := normalizeEmail(email)

	p.mu.Lock()
	p.record(OpRegister, key)
	if err := p.takeFailure(OpRegister); err != nil {
		p.mu.Unlock()
		return auth.Identity{}, err
	}

	if _, exists := p.accounts[key]; exists {
		p.mu.Unlock()
		return auth.Identity{}, auth.NewProviderError(auth.ProviderCodeEmailAlreadyInUse, "e-mail already in use")
	}

	hash, err := hashPassword(password, p.cost)
	if err != nil {
		p.mu.Unlock()
		return auth.Identity{}, auth.NewProviderError(auth.ProviderCodeWeakPassword, err.Error())
	}

	identity := auth.Identity{UID: newUID(key), Email: key}
	p.accounts[key] = &account{identity: identity, passwordHash: hash}
	p.current = copyIdentity(&identity)
	p.logger.Debug("account created", "uid", identity.UID, "email", key)
	p.publish(&identity)
	return identity, nil
}

// SignInWithPassword checks the password against the stored hash.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (auth.Identity, error) {
	key := normalizeEmail(email)

	p.mu.Lock()
	p.record(OpSignIn, key)
	if err := p.takeFailure(OpSignIn); err != nil {
		p.mu.Unlock()
		return auth.Identity{}, err
	}

	acc, ok := p.accounts[key]
	if !ok {
		p.mu.Unlock()
		return auth.Identity{}, auth.NewProviderError(auth.ProviderCodeUserNotFound, "no account for e-mail")
	}

	if err := comparePasswordAndHash(password, acc.passwordHash); err != nil {
		p.mu.Unlock()
		return auth.Identity{}, &auth.ProviderError{Code: auth.ProviderCodeWrongPassword, Message: "wrong password", Err: err}
	}

	identity := acc.identity
	p.current = copyIdentity(&identity)
	p.publish(&identity)
	return identity, nil
}

// SignInWithFederatedProvider runs the federated flow and links the account
// by e-mail, creating it on first use.
func (p *Provider) SignInWithFederatedProvider(ctx context.Context) (auth.Identity, error) {
	p.mu.Lock()
	p.record(OpSignInFederated, "")
	err := p.takeFailure(OpSignInFederated)
	flow := p.federated
	p.mu.Unlock()

	if err != nil {
		return auth.Identity{}, err
	}

	if err := ctx.Err(); err != nil {
		return auth.Identity{}, &auth.ProviderError{Code: auth.ProviderCodePopupClosed, Message: "federated flow aborted", Err: err}
	}

	profile, err := flow(ctx)
	if err != nil {
		return auth.Identity{}, err
	}

	key := normalizeEmail(profile.Email)

	p.mu.Lock()
	acc, ok := p.accounts[key]
	if !ok {
		profile.Email = key
		if profile.UID == "" {
			profile.UID = newUID(key)
		}
		acc = &account{identity: profile, passwordHash: randomPasswordHash(p.cost)}
		p.accounts[key] = acc
	}
	identity := acc.identity
	p.current = copyIdentity(&identity)
	p.publish(&identity)
	return identity, nil
}

// SignOut clears the current user.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.record(OpSignOut, "")
	if err := p.takeFailure(OpSignOut); err != nil {
		p.mu.Unlock()
		return err
	}
	p.current = nil
	p.publish(nil)
	return nil
}

// UpdateProfile merges patch into the stored account. Observers are not
// notified, as with hosted providers.
func (p *Provider) UpdateProfile(ctx context.Context, identity auth.Identity, patch auth.ProfilePatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.record(OpUpdateProfile, identity.Email)
	if err := p.takeFailure(OpUpdateProfile); err != nil {
		return err
	}

	if p.current == nil || p.current.UID != identity.UID {
		return auth.NewProviderError(ProviderCodeNoCurrentUser, "no user signed in")
	}

	acc, ok := p.accounts[normalizeEmail(identity.Email)]
	if !ok {
		return auth.NewProviderError(auth.ProviderCodeUserNotFound, "no account for e-mail")
	}

	acc.identity = acc.identity.Merge(patch)
	merged := acc.identity
	p.current = &merged
	return nil
}

// SendPasswordResetEmail records a reset e-mail for an existing account.
func (p *Provider) SendPasswordResetEmail(ctx context.Context, email string) error {
	key := normalizeEmail(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.record(OpPasswordReset, key)
	if err := p.takeFailure(OpPasswordReset); err != nil {
		return err
	}

	if _, ok := p.accounts[key]; !ok {
		return auth.NewProviderError(auth.ProviderCodeUserNotFound, "no account for e-mail")
	}

	p.resetEmails = append(p.resetEmails, key)
	p.logger.Debug("password reset e-mail sent", "email", key)
	return nil
}

// FailNext makes the next call to op fail with the given provider code.
// Failures queue up per operation.
func (p *Provider) FailNext(op Operation, code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], code)
}

// Push delivers an observer notification that no operation caused, such as
// a session revoked elsewhere. A nil identity signs the user out.
func (p *Provider) Push(identity *auth.Identity) {
	p.mu.Lock()
	p.current = copyIdentity(identity)
	p.publish(identity)
}

// Flush delivers queued notifications in order. It returns how many were
// sent. Each signed in entry carries the account as it is at delivery, so
// profile updates made after the change are included.
func (p *Provider) Flush() int {
	p.mu.Lock()
	queue := make([]*auth.Identity, 0, len(p.queue))
	for _, identity := range p.queue {
		queue = append(queue, p.resolve(identity))
	}
	p.queue = nil
	observers := p.snapshotObservers()

	p.dispatchMu.Lock()
	p.mu.Unlock()
	defer p.dispatchMu.Unlock()

	for _, identity := range queue {
		for _, observer := range observers {
			observer(copyIdentity(identity))
		}
	}
	return len(queue)
}

// CurrentUser returns the signed in identity, if any.
func (p *Provider) CurrentUser() (auth.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return auth.Identity{}, false
	}
	return *p.current, true
}

// Calls returns the recorded provider calls.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallCount returns how many times op was invoked.
func (p *Provider) CallCount(op Operation) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetEmails returns the addresses that were sent a reset e-mail.
func (p *Provider) ResetEmails() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resetEmails...)
}

// Account returns the stored identity for email.
func (p *Provider) Account(email string) (auth.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[normalizeEmail(email)]
	if !ok {
		return auth.Identity{}, false
	}
	return acc.identity, true
}

// ObserverCount returns the number of registered observers.
func (p *Provider) ObserverCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.observers)
}

// publish must be called with mu held and releases it. Deferred providers
// queue the change for Flush.
func (p *Provider) publish(identity *auth.Identity) {
	if p.deferred {
		p.queue = append(p.queue, copyIdentity(identity))
		p.mu.Unlock()
		return
	}
	observers := p.snapshotObservers()

	p.dispatchMu.Lock()
	p.mu.Unlock()
	defer p.dispatchMu.Unlock()

	for _, observer := range observers {
		observer(copyIdentity(identity))
	}
}

// resolve maps a queued identity to the stored account with the same UID.
// Sign-outs and identities with no account are returned as queued.
func (p *Provider) resolve(identity *auth.Identity) *auth.Identity {
	if identity == nil {
		return nil
	}
	acc, ok := p.accounts[normalizeEmail(identity.Email)]
	if !ok || acc.identity.UID != identity.UID {
		return copyIdentity(identity)
	}
	return copyIdentity(&acc.identity)
}

func (p *Provider) snapshotObservers() []auth.SessionObserver {
	out := make([]auth.SessionObserver, 0, len(p.observers))
	for _, o := range p.observers {
		out = append(out, o)
	}
	return out
}

func (p *Provider) record(op Operation, email string) {
	p.calls = append(p.calls, Call{Op: op, Email: email})
}

func (p *Provider) takeFailure(op Operation) error {
	codes := p.failures[op]
	if len(codes) == 0 {
		return nil
	}
	p.failures[op] = codes[1:]
	p.logger.Debug("injected provider failure", "operation", op, "code", codes[0])
	return auth.NewProviderError(codes[0], "injected failure")
}

func (p *Provider) defaultFederatedFlow(context.Context) (auth.Identity, error) {
	return DefaultFederatedIdentity, nil
}

func newUID(email string) string {
	if id, err := hashid.NewUUID(email); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func copyIdentity(identity *auth.Identity) *auth.Identity {
	if identity == nil {
		return nil
	}
	out := *identity
	return &out
}
