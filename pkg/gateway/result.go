package gateway

// Done returns an already completed result channel carrying err.
func Done(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

// Go runs fn on its own goroutine and delivers its error on the returned
// channel.
func Go(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- fn()
	}()
	return ch
}

// TokenDone returns an already completed token channel.
func TokenDone(token string, err error) <-chan TokenResult {
	ch := make(chan TokenResult, 1)
	ch <- TokenResult{Token: token, Err: err}
	close(ch)
	return ch
}

// RegistrationDone returns an already completed registration channel.
func RegistrationDone(token string, err error) <-chan Registration {
	ch := make(chan Registration, 1)
	ch <- Registration{DeviceToken: token, Err: err}
	close(ch)
	return ch
}
