// Package model defines core types used throughout pixmatch.
//
// # Feature Types
//
//   - Keypoint: Detected interest point with position/scale/orientation
//   - Descriptor: Fixed-length appearance vector, index-aligned with its keypoint
//   - Entry: One reference image's keypoint and descriptor sequences
//
// # Result Types
//
//   - Candidate: Transient per-reference scoring result during one search
//   - Match: Final answer for one query (reference ID + inlier support)
package model
