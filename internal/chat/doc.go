// Package chat carries the telemedicine room chat.
//
// Messages travel over a Bus (NATS in production) on the subject
// "chat.<roomID>". A Room subscribes on Join and, when a History is
// configured, replays stored messages from Redis so a client that reconnects
// sees what it missed.
//
// All rooms share one Cache keyed by room id. The cache drops a message when
// it repeats an id already seen, or when the same sender posted the same text
// within DedupWindow of a held message. This is how the echo of a locally
// sent message and overlapping replays collapse into one line. Rooms idle for
// longer than MaxAge are pruned and the least recently touched room is
// evicted once MaxRooms is exceeded.
//
// Payloads that do not decode are not discarded. They are shown as raw text
// with the Raw flag set.
package chat
