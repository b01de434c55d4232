// Package question fetches random LeetCode problems over the public GraphQL
// endpoint and turns them into follow-up message content.
package question
