// Package fsm provides durable, key-addressed conversation state for
// Telegram bots. Every conversation is addressed by a storage key built
// from (bot, chat, user, destiny); the destiny component lets one user
// run several independent conversations in the same chat. State rows
// survive restarts and are guarded by a per-key exclusive lock so that
// concurrent updates for the same conversation never interleave.
package fsm
