// Package theme handles CSS theme loading and hot-reload for scrawld.
// It supports loading themes from ~/.config/scrawl/themes/ and provides
// an embedded default theme for use when no custom theme is configured.
package theme
