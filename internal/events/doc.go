// Package events provides the in-process publish/subscribe mechanism services
// use to announce completed writes, such as a dose being applied, without
// depending on the components that react to them.
package events
