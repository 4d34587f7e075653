// Package baseball implements number baseball: a secret digit sequence, guess
// validation, strike/ball scoring and the round lifecycle.
//
// A Round is created Idle and moves to InProgress on Start. Each valid guess
// uses one attempt; the round ends Won on a homerun, LostByAttempts when a
// bounded attempt limit is reached, or LostByTimeout when the caller signals
// that time ran out. Terminal rounds accept no further guesses.
package baseball
