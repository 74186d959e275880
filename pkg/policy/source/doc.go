// Package source loads rule sets from external configuration and watches
// them for changes.
//
// FileSource reads a YAML rule file. Watcher observes the file with
// fsnotify and, after a debounce window, asks its callback to reload; a
// failed reload leaves the previously active rule set in force, so a bad
// edit never takes down authorization.
package source
