package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltdeck/voltdeck/internal/session"
)

// loginMode selects between the sign-in and sign-up forms.
type loginMode int

const (
	modeLogin loginMode = iota
	modeRegister
)

// authResultMsg carries the outcome of a login or register attempt.
type authResultMsg struct {
	result session.Result
}

// loginModel is the logged-out view: an email/password form with a
// register variant. On success the session store notifies the app, which
// reroutes to the dashboard; this model never navigates itself.
type loginModel struct {
	store      *session.Store
	mode       loginMode
	email      string
	username   string
	password   string
	confirm    string
	focus      int
	submitting bool
	errMsg     string
	width      int
	height     int
}

func newLoginModel(store *session.Store) loginModel {
	return loginModel{store: store}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

// fieldCount is the number of form fields in the current mode.
func (m loginModel) fieldCount() int {
	if m.mode == modeRegister {
		return 4
	}
	return 2
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case authResultMsg:
		m.submitting = false
		if !msg.result.OK {
			m.errMsg = msg.result.Message
			m.password = ""
			m.confirm = ""
		}
		// Success needs no handling here; the store subscription reroutes.
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.focus = (m.focus + 1) % m.fieldCount()
		case "shift+tab", "up":
			m.focus = (m.focus + m.fieldCount() - 1) % m.fieldCount()
		case "ctrl+t":
			if m.mode == modeLogin {
				m.mode = modeRegister
			} else {
				m.mode = modeLogin
			}
			m.focus = 0
			m.errMsg = ""
			m.password = ""
			m.confirm = ""
		case "enter":
			return m.submit()
		default:
			m.errMsg = ""
			m.setFocused(editRune(m.focused(), msg.String()))
		}
	}
	return m, nil
}

func (m loginModel) focused() string {
	switch m.focus {
	case 0:
		return m.email
	case 1:
		if m.mode == modeRegister {
			return m.username
		}
		return m.password
	case 2:
		return m.password
	default:
		return m.confirm
	}
}

func (m *loginModel) setFocused(v string) {
	switch m.focus {
	case 0:
		m.email = v
	case 1:
		if m.mode == modeRegister {
			m.username = v
		} else {
			m.password = v
		}
	case 2:
		m.password = v
	default:
		m.confirm = v
	}
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email)
	if email == "" || m.password == "" {
		m.errMsg = "email and password required"
		return m, nil
	}
	if m.mode == modeRegister {
		if strings.TrimSpace(m.username) == "" {
			m.errMsg = "username required"
			return m, nil
		}
		if m.password != m.confirm {
			m.errMsg = "Passwords do not match"
			return m, nil
		}
	}

	m.submitting = true
	m.errMsg = ""
	store := m.store
	mode := m.mode
	username := strings.TrimSpace(m.username)
	password := m.password
	return m, func() tea.Msg {
		if mode == modeRegister {
			return authResultMsg{result: store.Register(context.Background(), email, username, password)}
		}
		return authResultMsg{result: store.Login(context.Background(), email, password)}
	}
}

func (m loginModel) helpKeys() string {
	other := "register"
	if m.mode == modeRegister {
		other = "sign in"
	}
	return helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+t", other) + "  " + helpEntry("ctrl+c", "quit")
}

func (m loginModel) View() string {
	var sb strings.Builder

	title := "SIGN IN"
	if m.mode == modeRegister {
		title = "REGISTER"
	}
	sb.WriteString("\n " + sectionHeaderStyle.Render("── "+title+" ──") + "\n\n")

	sb.WriteString(renderFormField("email", m.email, m.focus == 0, false) + "\n")
	if m.mode == modeRegister {
		sb.WriteString(renderFormField("username", m.username, m.focus == 1, false) + "\n")
		sb.WriteString(renderFormField("password", m.password, m.focus == 2, true) + "\n")
		sb.WriteString(renderFormField("confirm", m.confirm, m.focus == 3, true) + "\n")
	} else {
		sb.WriteString(renderFormField("password", m.password, m.focus == 1, true) + "\n")
	}

	sb.WriteString("\n")
	switch {
	case m.submitting:
		sb.WriteString("   " + dimStyle.Render("authenticating...") + "\n")
	case m.errMsg != "":
		sb.WriteString("   " + errorStyle.Render(m.errMsg) + "\n")
	}

	if m.mode == modeLogin {
		sb.WriteString("\n   " + metaStyle.Render("no account? ctrl+t to register") + "\n")
	} else {
		sb.WriteString("\n   " + metaStyle.Render("have an account? ctrl+t to sign in") + "\n")
	}
	return sb.String()
}
