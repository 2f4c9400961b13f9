// Package view holds the templ components for the HTML pages. Run
// `templ generate` after editing a .templ file.
package view
