// Package msgs defines the messages exchanged between the network core and
// its remote clients: slot writes, status queries and drive status events.
//
// Every message is wrapped in a Typed envelope carrying its type ID. A type
// ID has a kind (command or event), a group and an ID within the group.
// Replies to a command set TypeIDMaskReply.
package msgs
