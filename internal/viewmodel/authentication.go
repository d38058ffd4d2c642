package viewmodel

import "context"

// Authentication tracks the sign-in screen. It observes the authentication
// service; it does not issue credentials.
type Authentication struct {
	State                    Observable[AuthState]
	LoginButtonNotClickedYet Observable[bool]

	logins EventQueue[struct{}]
}

// NewAuthentication creates an Authentication view model in the
// unauthenticated state.
func NewAuthentication() *Authentication {
	vm := &Authentication{}
	vm.LoginButtonNotClickedYet.Set(true)
	return vm
}

// SetAuthenticationState records the state reported by the auth service.
func (vm *Authentication) SetAuthenticationState(s AuthState) {
	vm.State.Set(s)
}

// OnLogin queues a login request.
func (vm *Authentication) OnLogin() {
	vm.logins.Send(struct{}{})
	vm.LoginButtonNotClickedYet.Set(false)
}

// NextLogin blocks until a login request is queued and consumes it.
func (vm *Authentication) NextLogin(ctx context.Context) error {
	_, err := vm.logins.Next(ctx)
	return err
}

// IsAuthenticated reports whether the user is signed in.
func (vm *Authentication) IsAuthenticated() bool {
	return vm.State.Get() == Authenticated
}
