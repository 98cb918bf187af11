package internal

// Action handles a request. A non-nil result is the response; a nil result
// with a nil error passes the request on.
// Middlewares, route handlers and websocket event handlers are all Actions.
type Action func(c *Context) (any, error)

// Chain composes actions into one. The actions run in order until one
// returns a non-nil result or an error. A chain of one action is that action.
// An aborted request stops the chain before the next step.
func Chain(actions ...Action) Action {
	steps := make([]Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			steps = append(steps, a)
		}
	}

	switch len(steps) {
	case 0:
		return nil
	case 1:
		return steps[0]
	}

	return func(c *Context) (any, error) {
		for _, step := range steps {
			if c.Aborted() {
				return nil, ErrAborted
			}
			res, err := step(c)
			if err != nil {
				return nil, err
			}
			if res != nil {
				return res, nil
			}
		}
		return nil, nil
	}
}
