package browser_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/chatrelay/pkg/browser"
	"github.com/entrhq/chatrelay/pkg/browser/browsertest"
)

const inputSel = "#prompt-textarea"

func openFake(t *testing.T, page *browsertest.Page) (*browser.Session, *browsertest.Driver) {
	t.Helper()
	driver := browsertest.NewDriver(page)
	session, err := browser.Open(driver, browser.Options{
		ProfileDir: filepath.Join(t.TempDir(), "profile"),
		TargetURL:  "https://chat.example.com/",
	})
	require.NoError(t, err)
	return session, driver
}

func TestOpen(t *testing.T) {
	t.Run("creates profile and navigates", func(t *testing.T) {
		page := browsertest.NewPage()
		profile := filepath.Join(t.TempDir(), "profile")
		driver := browsertest.NewDriver(page)

		session, err := browser.Open(driver, browser.Options{
			ProfileDir: profile,
			TargetURL:  "https://chat.example.com/",
		})
		require.NoError(t, err)

		info, err := os.Stat(profile)
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		launches := driver.Launches()
		require.Len(t, launches, 1)
		assert.Equal(t, profile, launches[0].ProfileDir)
		assert.False(t, launches[0].Headless)
		assert.Equal(t, browser.DefaultTimeout, launches[0].Timeout)

		assert.Equal(t, "https://chat.example.com/", session.CurrentURL())
		assert.Equal(t, profile, session.ProfileDir())
		assert.Equal(t, "https://chat.example.com/", session.TargetURL())
		assert.False(t, session.CreatedAt().IsZero())
	})

	t.Run("profile path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

		driver := browsertest.NewDriver(nil)
		_, err := browser.Open(driver, browser.Options{ProfileDir: file})
		require.Error(t, err)
		assert.ErrorIs(t, err, browser.ErrSessionStartup)

		var startupErr *browser.StartupError
		require.ErrorAs(t, err, &startupErr)
		assert.Equal(t, "profile", startupErr.Stage)
		assert.Empty(t, driver.Launches())
	})

	t.Run("launch failure", func(t *testing.T) {
		driver := browsertest.NewDriver(nil)
		driver.LaunchErr = errors.New("no browser binary")

		_, err := browser.Open(driver, browser.Options{ProfileDir: t.TempDir()})
		assert.ErrorIs(t, err, browser.ErrSessionStartup)
		assert.Contains(t, err.Error(), "no browser binary")
		assert.True(t, driver.Closed())
	})

	t.Run("navigation failure closes everything", func(t *testing.T) {
		page := browsertest.NewPage()
		page.GotoErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
		driver := browsertest.NewDriver(page)

		_, err := browser.Open(driver, browser.Options{ProfileDir: t.TempDir()})

		var startupErr *browser.StartupError
		require.ErrorAs(t, err, &startupErr)
		assert.Equal(t, "navigate", startupErr.Stage)
		assert.True(t, page.Closed())
		assert.True(t, driver.Closed())
	})

	t.Run("invalid selector override", func(t *testing.T) {
		driver := browsertest.NewDriver(nil)
		_, err := browser.Open(driver, browser.Options{
			ProfileDir: t.TempDir(),
			Selectors:  browser.Selectors{"sidebar": "#nav"},
		})
		assert.ErrorIs(t, err, browser.ErrSessionStartup)
	})
}

func TestSession_LocateInputControl(t *testing.T) {
	page := browsertest.NewPage()
	session, _ := openFake(t, page)

	el, err := session.LocateInputControl()
	require.NoError(t, err)
	assert.Nil(t, el, "absent control is not an error")

	page.Add(inputSel, nil)
	el, err = session.LocateInputControl()
	require.NoError(t, err)
	assert.NotNil(t, el)
}

func TestSession_IsReady(t *testing.T) {
	tests := []struct {
		name    string
		present bool
		err     error
		want    bool
	}{
		{name: "control present", present: true, want: true},
		{name: "control absent", present: false, want: false},
		{name: "transient lookup failure", present: true, err: errors.New("Execution context was destroyed, most likely because of a navigation"), want: false},
		{name: "other lookup failure", present: true, err: errors.New("target closed"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.NewPage()
			session, _ := openFake(t, page)
			if tt.present {
				page.Add(inputSel, nil)
			}
			if tt.err != nil {
				page.FailNext(inputSel, tt.err)
			}

			assert.NotPanics(t, func() {
				assert.Equal(t, tt.want, session.IsReady())
			})
		})
	}
}

func TestSession_WaitReady(t *testing.T) {
	t.Run("returns once control appears", func(t *testing.T) {
		page := browsertest.NewPage()
		session, _ := openFake(t, page)

		go func() {
			time.Sleep(30 * time.Millisecond)
			page.Add(inputSel, nil)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, session.WaitReady(ctx, 5*time.Millisecond))
	})

	t.Run("stops when context ends", func(t *testing.T) {
		session, _ := openFake(t, browsertest.NewPage())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, session.WaitReady(ctx, 5*time.Millisecond), context.DeadlineExceeded)
	})
}

func TestSession_FindUsesSelectorTable(t *testing.T) {
	page := browsertest.NewPage()
	driver := browsertest.NewDriver(page)
	session, err := browser.Open(driver, browser.Options{
		ProfileDir: t.TempDir(),
		Selectors:  browser.Selectors{browser.ControlSubmit: "button[aria-label='Send']"},
	})
	require.NoError(t, err)

	page.Add("button[aria-label='Send']", nil)
	el, err := session.Find(browser.ControlSubmit)
	require.NoError(t, err)
	assert.NotNil(t, el)
	assert.Equal(t, "button[aria-label='Send']", session.Selector(browser.ControlSubmit))
	assert.Equal(t, inputSel, session.Selector(browser.ControlInput))

	page.Add("div[data-message-author-role='assistant']", &browsertest.Element{Text: "a"})
	page.Add("div[data-message-author-role='assistant']", &browsertest.Element{Text: "b"})
	els, err := session.FindAll(browser.ControlAssistantMessage)
	require.NoError(t, err)
	assert.Len(t, els, 2)
}

func TestSession_FindWrapsTransient(t *testing.T) {
	page := browsertest.NewPage()
	session, _ := openFake(t, page)
	page.FailNext(".result-streaming", errors.New("Cannot find context with specified id"))

	_, err := session.Find(browser.ControlStreaming)
	require.Error(t, err)
	assert.True(t, browser.IsTransient(err))
}

func TestSession_Close(t *testing.T) {
	page := browsertest.NewPage()
	session, driver := openFake(t, page)

	require.NoError(t, session.Close())
	assert.True(t, page.Closed())
	assert.True(t, driver.Closed())
}
