// Package policy provides scripted drivers for running episodes without an
// external controller.
//
// Policies see only an agent's observation vector. Random picks uniformly;
// Forager follows food and avoids hazards and the board edge. Both take a
// seed so runs are reproducible.
package policy
