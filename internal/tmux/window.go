package tmux

// Window is a stateless handle on one named window of the shared
// session. Window lifetime is owned by tmux; a handle stays valid
// whether or not the window currently exists.
type Window struct {
	sess *Session
	name string
}

// Name returns the window name.
func (w Window) Name() string { return w.name }

// Target returns the session:window target string tmux commands use.
func (w Window) Target() string { return w.sess.name + ":" + w.name }

// Alive reports whether the window currently exists.
func (w Window) Alive() bool { return w.sess.WindowExists(w.name) }

// Create makes a new detached window rooted at cwd. It is not
// idempotent: callers check Alive first.
func (w Window) Create(cwd string) error {
	args := []string{"new-window", "-d", "-t", w.sess.name + ":", "-n", w.name}
	if cwd != "" {
		args = append(args, "-c", cwd)
	}
	_, err := w.sess.run(args...)
	return err
}

// SendKeys types text into the window followed by a separate Enter
// keypress. The text goes in literally (-l), with no tmux key-name
// interpretation; Enter is sent as its own event because full-screen
// programs treat a trailing newline inside a paste differently from a
// keypress and can swallow it.
func (w Window) SendKeys(text string) error {
	if _, err := w.sess.run("send-keys", "-t", w.Target(), "-l", "--", text); err != nil {
		return err
	}
	_, err := w.sess.run("send-keys", "-t", w.Target(), "Enter")
	return err
}

// Kill destroys the window if it exists, and is a no-op otherwise.
func (w Window) Kill() error {
	if !w.Alive() {
		return nil
	}
	_, err := w.sess.run("kill-window", "-t", w.Target())
	return err
}

// LaunchAgent starts a long-running command inside the window. There is
// no supervision beyond window liveness.
func (w Window) LaunchAgent(command string) error {
	return w.SendKeys(command)
}
