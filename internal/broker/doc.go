// Package broker moves job ids between the Redis keys derived from a
// queue.Definition: a list at BrokerKey for ready jobs and a sorted set at
// BrokerEtaKey, scored by unix eta, for scheduled ones.
package broker
