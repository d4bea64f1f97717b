// Package pixmatch provides feature-based reference image matching.
//
// Pixmatch answers one question: given a set of reference images and a
// query image, which reference does the query depict, if any? It is
// robust to resizing, compression artifacts and moderate perspective
// change because it matches local features, not pixels.
//
// # Quick Start
//
// Build a descriptor cache once per reference set:
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./data")
//	err := pixmatch.Build(ctx, store, "cache.bin", images)
//
// Then match queries against it:
//
//	eng, _ := pixmatch.Open(ctx, store, "cache.bin")
//	match, found, _ := eng.FindMatch(ctx, queryBytes)
//	if found {
//	    fmt.Println(match.Ref, match.Inliers)
//	}
//
// # How Matching Works
//
// Every image is decoded, converted to grayscale and resized to a
// canonical resolution. Keypoints and binary descriptors are extracted
// (FAST corners + BRIEF descriptors by default). A query is compared
// against each cached entry in three steps:
//
//   - k=2 nearest-neighbor descriptor matching with Lowe's ratio test
//   - early rejection when too few matches survive the ratio test
//   - RANSAC homography verification of the survivors
//
// Only geometrically consistent matches (inliers) count as support.
// The entry with the most inliers wins; on a tie the entry added
// earlier at build time wins. Fewer than MinInliers inliers means no
// match.
//
// # Storage
//
// The descriptor cache is a single versioned, checksummed blob written
// atomically through a BlobStore. Local filesystem, in-memory, S3 and
// MinIO backends are provided.
package pixmatch
