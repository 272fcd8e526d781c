// Package context holds the state shared by the app and every CLI command:
// the filesystem, process environment, standard streams, logger and loaded
// configuration.
//
// It is a separate package so that cli commands can receive it without
// importing the app package.
package context
