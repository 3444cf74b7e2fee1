package platform

// GraphQL documents sent to the platform's Hasura endpoint.
// Every document takes the numeric user id as $userId.

const queryUser = `
query User {
  user {
    id
    login
    attrs
  }
}`

const queryUserByID = `
query UserByID($userId: Int!) {
  user(where: {id: {_eq: $userId}}) {
    id
    login
    attrs
  }
}`

const queryXPTransactions = `
query XPTransactions($userId: Int!) {
  transaction(
    where: {userId: {_eq: $userId}, type: {_eq: "xp"}}
    order_by: {createdAt: asc}
  ) {
    id
    amount
    objectId
    path
    createdAt
    object {
      id
      name
      type
    }
  }
}`

const queryLevel = `
query Level($userId: Int!) {
  transaction(
    where: {userId: {_eq: $userId}, type: {_eq: "level"}, path: {_nlike: "%/piscine-%"}}
    order_by: {createdAt: desc}
    limit: 1
  ) {
    id
    amount
    path
    createdAt
  }
}`

const queryAverageGrade = `
query AverageGrade($userId: Int!) {
  progress_aggregate(where: {userId: {_eq: $userId}, grade: {_is_null: false}}) {
    aggregate {
      avg {
        grade
      }
    }
  }
}`

const queryAudits = `
query Audits($userId: Int!, $limit: Int!) {
  audit(
    where: {auditorId: {_eq: $userId}}
    order_by: {createdAt: desc}
    limit: $limit
  ) {
    id
    grade
    createdAt
    endAt
    resultId
    group {
      object {
        name
        type
      }
      captain {
        login
      }
    }
  }
}`

const queryAuditTotals = `
query AuditTotals($userId: Int!) {
  up: transaction_aggregate(where: {userId: {_eq: $userId}, type: {_eq: "up"}}) {
    aggregate {
      sum {
        amount
      }
    }
  }
  down: transaction_aggregate(where: {userId: {_eq: $userId}, type: {_eq: "down"}}) {
    aggregate {
      sum {
        amount
      }
    }
  }
}`

const queryProjectRecords = `
query ProjectRecords($userId: Int!) {
  progress(
    where: {userId: {_eq: $userId}, object: {type: {_eq: "project"}}}
    order_by: {createdAt: desc}
  ) {
    id
    grade
    createdAt
    objectId
    path
    object {
      id
      name
      type
    }
  }
  result(
    where: {userId: {_eq: $userId}, object: {type: {_eq: "project"}}}
    order_by: {createdAt: desc}
  ) {
    id
    grade
    createdAt
    objectId
    path
    object {
      id
      name
      type
    }
  }
}`

const queryPassFailResults = `
query PassFailResults($userId: Int!) {
  result(where: {userId: {_eq: $userId}, path: {_nlike: "%/piscine-%"}}) {
    id
    objectId
    grade
    createdAt
  }
}`

const querySkillTransactions = `
query SkillTransactions($userId: Int!) {
  transaction(
    where: {userId: {_eq: $userId}, type: {_like: "skill_%"}}
    order_by: {amount: desc}
    limit: 1000
  ) {
    id
    type
    amount
    createdAt
  }
}`
