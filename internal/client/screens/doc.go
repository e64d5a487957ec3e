// Package screens holds the screen coordinators: one per data screen
// (overview, events, chores, bills, shopping list).
//
// A coordinator owns the state a renderer shows and keeps it fresh. Mount
// resolves the household, makes sure the live update channel is connected,
// subscribes to the screen's topics and loads the data; every topic signal
// and every (re)connect triggers a reload. Unmount cancels in-flight work,
// drops the subscriptions and disconnects the channel when no other screen
// is subscribed any more.
//
// Every mount starts a new generation. Results that arrive for an older
// generation are discarded, so a response landing after Unmount (or after a
// re-mount) never touches the state.
package screens
