package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func loginBanner(targetURL, profileDir string) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Log in to continue"),
		"",
		fmt.Sprintf("A browser window is open at %s.", targetURL),
		"Log in there; chatrelay starts serving once the chat input appears.",
		"",
		hintStyle.Render("Profile: "+profileDir),
		hintStyle.Render("The login is kept in the profile for the next run."),
	)
	return bannerStyle.Render(body)
}

func readyBanner(addr string) string {
	return bannerStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("chatrelay v"+version+" ready"),
		hintStyle.Render("GET "+addr+"/chat?q=<prompt>"),
	))
}
