// Package models defines the domain records of tabsettle.
//
// # Records
//
//   - Group: a named roster of members who share expenses
//   - Member: a directory entry resolving a member ID to a display name
//   - Transaction: an expense (one payer, many splits) or a direct payment
//
// Only these records persist. Balances and settlements are computed from them on
// every request by the calculator package and never stored.
//
// # Soft delete
//
// Every record carries an Active flag. Deleting flips it to false; stores filter
// inactive records out before anything reaches the calculator.
//
// # Money
//
// All amounts are shopspring decimals scoped to exactly one Currency. Nothing in
// the domain ever converts between currencies.
package models
