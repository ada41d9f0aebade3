// Package mediary dispatches queries and commands to the contexts they
// execute against, applying one decorator to every execution and caching
// query results through the query caches registered in a cache.Registry.
//
// Queries and commands are plain values implementing one of the operation
// interfaces (SyncQuery, AsyncCachedQuery, SyncTransformedQuery, ...). Go has
// no generic methods, so dispatch is done by package functions taking the
// Mediary:
//
//	type CommentsByPostID struct{ PostID int }
//
//	func (q *CommentsByPostID) ConfigureCache(info *cache.Info) {
//		info.VaryBy = []any{q.PostID}
//	}
//
//	func (q *CommentsByPostID) CacheEntryOptions(*jsonplaceholder.Client) redisstore.EntryOptions {
//		return redisstore.EntryOptions{Expiration: 5 * time.Minute}
//	}
//
//	func (q *CommentsByPostID) QueryAsync(ctx context.Context, c *jsonplaceholder.Client) ([]Comment, error) {
//		...
//	}
//
//	comments, err := mediary.QueryCachedAsync(ctx, m, &CommentsByPostID{PostID: 7}, client, cache.Default)
//
// Sync functions take no context.Context; Async functions take ctx and pass
// it to the operation, the decorator and the cache store.
//
// # Errors
//
// A nil mediary, operation or context fails with an *ArgumentError matching
// ErrInvalidArgument before anything executes. Errors from operations are
// returned unchanged. Cache store errors fail the call and are not retried.
package mediary
