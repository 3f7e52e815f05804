// Package daemon provides the main orchestration for scrawld.
package daemon
