// Package chats groups the conversation primitives shared by the agent loop
// and the provider adapters: roles, content parts, messages, and the chat
// container.
package chats
