package database

var OperationFromSQL = operationFromSQL
